package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"cippe-prep/internal/bankfetch"
	"cippe-prep/internal/config"
	"cippe-prep/internal/exam"
	"cippe-prep/internal/httpapi"
	"cippe-prep/internal/kvstore"
	"cippe-prep/internal/logging"
	"cippe-prep/internal/progress"
	"cippe-prep/internal/session"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	bank := flag.String("bank", "", "question bank JSON file (overrides config)")
	db := flag.String("db", "", "SQLite progress file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *bank != "" {
		cfg.BankPath = *bank
		cfg.BankURL = ""
	}
	if *db != "" {
		cfg.DBPath = *db
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	cat, err := bankfetch.LoadBank(ctx, cfg.BankURL, cfg.BankPath)
	if err != nil {
		log.Fatal("question bank unusable", "error", err)
	}

	kv, err := kvstore.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal("progress database unusable", "path", cfg.DBPath, "error", err)
	}
	defer kv.Close()

	store := progress.NewStore(kv, log)
	if err := store.Load(ctx); err != nil {
		log.Fatal("progress load failed", "error", err)
	}

	ctrl := session.New(cat, store, log, session.Config{
		ExamSpec: exam.Spec{
			QuestionCount:   cfg.ExamQuestionCount,
			TestCount:       cfg.ExamTestCount,
			DurationSeconds: cfg.ExamDurationSeconds,
		},
		TickInterval: time.Duration(cfg.TickIntervalMS) * time.Millisecond,
	})

	api := httpapi.NewAPI(ctrl, log)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.NewRouter(api, httpapi.Options{CORSOrigins: cfg.CORSOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("prep-server listening",
		"addr", cfg.ListenAddr,
		"questions", cat.Len(),
		"db", cfg.DBPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", "error", err)
	}
}
