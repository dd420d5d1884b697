// formd serves dynamic application forms: template-driven pages,
// conditional logic, and task-list state over JSON endpoints, plus a
// websocket channel for live field-change evaluation.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/flow"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/service"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store/bolt"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store/sqlite"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

func main() {
	var (
		configFile   = flag.String("config", "", "YAML config file (optional)")
		listen       = flag.String("listen", "", "listen address (overrides config)")
		templatesDir = flag.String("templates", "", "template directory (overrides config)")
		storeKind    = flag.String("store", "", "form-data store: mem, bolt, or sqlite (overrides config)")
		dbFile       = flag.String("db", "", "database file for bolt/sqlite (overrides config)")
		mqttBroker   = flag.String("mqtt", "", "MQTT broker for event publishing (overrides config)")
		refreshCron  = flag.String("refresh", "", "crontab schedule for template reloads (overrides config)")
		debug        = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	cfg := service.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = service.LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	override(&cfg.Listen, *listen)
	override(&cfg.TemplatesDir, *templatesDir)
	override(&cfg.Store, *storeKind)
	override(&cfg.DBFile, *dbFile)
	override(&cfg.MQTT.Broker, *mqttBroker)
	override(&cfg.RefreshCron, *refreshCron)
	if *debug {
		cfg.Debug = true
	}

	ctx := context.Background()

	cache := store.NewTemplateCache(func() ([]*template.FormTemplate, error) {
		return template.LoadDir(cfg.TemplatesDir)
	})
	cache.Debug = cfg.Debug
	if err := cache.Refresh(ctx); err != nil {
		log.Fatal(err)
	}
	log.Printf("formd loaded templates %v", cache.IDs())

	forms, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	s := &service.Service{
		Templates:    cache,
		Forms:        forms,
		Orchestrator: &flow.Orchestrator{Debug: cfg.Debug},
		Debug:        cfg.Debug,
	}

	if cfg.MQTT.Broker != "" {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "formd"
		}
		topic := cfg.MQTT.Topic
		if topic == "" {
			topic = "forms/events"
		}
		emitter, err := service.NewMQTTEmitter(cfg.MQTT.Broker, clientID, topic)
		if err != nil {
			log.Fatal(err)
		}
		defer emitter.Close()
		s.Emitter = emitter
	}

	if cfg.RefreshCron != "" {
		if err := s.StartTemplateRefresh(ctx, cfg.RefreshCron); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("formd listening on %s", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, s.Mux()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func override(target *string, val string) {
	if val != "" {
		*target = val
	}
}

func openStore(cfg *service.Config) (store.FormStore, func(), error) {
	switch cfg.Store {
	case "", "mem":
		return store.NewMem(), func() {}, nil
	case "bolt":
		s, err := bolt.NewStorage(cfg.DBFile)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Open(); err != nil {
			return nil, nil, err
		}
		s.Debug = cfg.Debug
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.DBFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		log.Fatalf("unknown store %q", cfg.Store)
		return nil, nil, nil
	}
}
