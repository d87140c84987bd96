package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RoanBrand/gomq/internal/config"
	"github.com/joho/godotenv"
	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
)

type program struct {
	conf       config.Config
	configFlag string
	execDir    string

	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(s service.Service) error {
	if err := godotenv.Load(filepath.Join(p.execDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if p.configFlag != "" {
		if err := p.conf.LoadFromFile(p.configFlag); err != nil {
			return err
		}
		log.Infoln("Using config file:", p.configFlag)
	} else {
		toTry := filepath.Join(p.execDir, "config.json")
		if fileExists(toTry) {
			if err := p.conf.LoadFromFile(toTry); err != nil {
				return err
			}
			log.Infoln("Using config file:", toTry)
		} else {
			if err := p.conf.LoadFromEnv(); err != nil {
				return err
			}
			log.Infoln("No config file specified or found. Using environment.")
		}
	}

	if err := setupLogging(&p.conf); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel, p.done = cancel, make(chan error, 1)

	go func() {
		err := run(ctx, &p.conf)
		p.done <- err
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithFields(log.Fields{
				"err": err,
			}).Error("Client stopped")
			if service.Interactive() {
				os.Exit(1)
			}
			s.Stop()
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		log.Warn("Timed out waiting for client to stop")
	}
	return nil
}

func setupLogging(c *config.Config) error {
	if c.Log.File != "" {
		f, err := os.OpenFile(c.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}
	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "error":
			log.SetLevel(log.ErrorLevel)
		case "warn":
			log.SetLevel(log.WarnLevel)
		case "info":
			log.SetLevel(log.InfoLevel)
		case "debug":
			log.SetLevel(log.DebugLevel)
		default:
			return errors.New("invalid log level '" + c.Log.Level + "'")
		}
	}
	return nil
}

func main() {
	svcFlag := flag.String("service", "", "Control the system service.")
	cnfFlag := flag.String("c", "", "Path of config file.")
	flag.Parse()

	ePath, err := os.Executable()
	if err != nil {
		log.Fatal(err)
	}
	eDir, _ := filepath.Split(ePath)

	// Set defaults before config override.
	if service.Interactive() {
		log.SetLevel(log.DebugLevel)
	} else {
		f, err := os.OpenFile(filepath.Join(eDir, "gomq.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		log.SetOutput(f)
	}

	prg := program{configFlag: *cnfFlag, execDir: eDir}
	svcConfig := service.Config{
		Name:        "gomq",
		DisplayName: "gomq MQTT client",
		Description: "gomq MQTT 3.1.1 client. See https://github.com/RoanBrand/gomq",
	}

	s, err := service.New(&prg, &svcConfig)
	if err != nil {
		log.Fatal(err)
	}

	if len(*svcFlag) != 0 {
		err := service.Control(s, *svcFlag)
		if err != nil {
			log.Printf("Valid actions: %q\n", service.ControlAction)
			log.Fatal(err)
		}
		return
	}

	err = s.Run()
	if err != nil {
		log.Fatal(err)
	}
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
