package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine"
	"github.com/Carmen-Shannon/oxy-cad/engine/config"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/Carmen-Shannon/oxy-cad/engine/vr"
	"github.com/Carmen-Shannon/oxy-cad/engine/window"
	"github.com/schollz/progressbar/v3"
)

type viewer struct {
	eng      engine.Engine
	rotation [3]float64
}

// onMirrorKey toggles a one degree per frame VR spin about X, Y or Z; space stops it.
func (v *viewer) onMirrorKey(key int) {
	switch key {
	case common.KeyX, common.KeyY, common.KeyZ:
		axis := key - common.KeyX
		if v.rotation[axis] == 0 {
			v.rotation[axis] = 1
		} else {
			v.rotation[axis] = 0
		}
	case common.KeySpace:
		v.rotation = [3]float64{}
	default:
		return
	}
	if err := v.eng.SetVRRotation(v.rotation[0], v.rotation[1], v.rotation[2]); err != nil {
		common.Logger().Warn("cannot rotate vr view", "err", err)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "oxyview.yaml"
	}
	return filepath.Join(dir, "oxyview", "config.yaml")
}

func (v *viewer) run() error {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	configPath := fs.String("config", defaultConfigPath(), "the configuration file to load")
	writeConfig := fs.Bool("write-config", false, "write the effective configuration to -config and exit")
	startVR := fs.Bool("vr", false, "start a VR session after loading")
	mirror := fs.Bool("mirror", false, "present the VR session in a desktop mirror window instead of headless")
	background := fs.String("background", "", "a PNG or JPEG image to use as the scene background")
	skyboxDir := fs.String("skybox", "", "a folder with px, nx, py, ny, pz and nz cube face images")
	list := fs.Bool("list", false, "print the part tree after loading and exit")
	profile := fs.Bool("profile", false, "log engine tick statistics")
	logLevel := fs.String("log", "", "override the configured log level (debug, info, warn, error)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		// defaults are still usable
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *writeConfig {
		if err := os.MkdirAll(filepath.Dir(*configPath), 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
		if err := cfg.Save(*configPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		common.Logger().Info("configuration written", "path", *configPath)
		return nil
	}

	v.eng = engine.NewEngine(engine.WithConfig(cfg), engine.WithProfiling(*profile), engine.WithWatch(!*list))

	if files := fs.Args(); len(files) > 0 {
		pb := progressbar.Default(int64(len(files)), "loading parts")
		results := v.eng.OpenFiles(files, func(done, total int) {
			_ = pb.Add(1)
		})
		_ = pb.Close()
		for _, r := range results {
			if r.Err != nil {
				common.Logger().Warn("failed to open part", "path", r.Path, "err", r.Err)
			}
		}
	}

	if *list {
		v.printTree(os.Stdout)
		return nil
	}

	if *background != "" {
		if err := v.eng.LoadBackground(*background); err != nil {
			return fmt.Errorf("failed to load background: %w", err)
		}
	}
	if *skyboxDir != "" {
		if err := v.eng.LoadSkybox(*skyboxDir); err != nil {
			return fmt.Errorf("failed to load skybox: %w", err)
		}
	}

	if *startVR {
		var dev vr.Device = vr.NewHeadlessDevice()
		if *mirror {
			dev = window.NewMirror(
				window.WithTitle(cfg.VR.MirrorTitle),
				window.WithSize(cfg.VR.MirrorWidth, cfg.VR.MirrorHeight),
				window.WithKeyHandler(v.onMirrorKey),
			)
		}
		if err := v.eng.StartVR(dev); err != nil {
			return fmt.Errorf("failed to start vr: %w", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		common.Logger().Info("shutting down")
		v.eng.Quit()
	}()

	v.eng.Run()
	return nil
}

func (v *viewer) printTree(w *os.File) {
	var walk func(p *part.Part, depth int)
	walk = func(p *part.Part, depth int) {
		for _, c := range p.Children() {
			faces, area := 0, 0.0
			if c.HasGeometry() {
				faces, area = c.Processed().NumFaces(), c.Processed().Area()
			}
			fmt.Fprintf(w, "%*s%s\tvisible=%t\tfaces=%d\tarea=%.4g\t%s\n", depth*2, "", c.Name(), c.Visible(), faces, area, c.Source())
			walk(c, depth+1)
		}
	}
	walk(v.eng.Tree().Root(), 0)
}

func main() {
	v := viewer{}

	if err := v.run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run oxyview: %v\n", err)
		os.Exit(1)
	}
}
