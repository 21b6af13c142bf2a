package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cippe-prep/internal/bankfetch"
	"cippe-prep/internal/cli"
	"cippe-prep/internal/config"
	"cippe-prep/internal/exam"
	"cippe-prep/internal/kvstore"
	"cippe-prep/internal/logging"
	"cippe-prep/internal/progress"
	"cippe-prep/internal/session"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	bank := flag.String("bank", "", "question bank JSON file (overrides config)")
	db := flag.String("db", "", "SQLite progress file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
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

	if err := cli.Run(ctx, os.Stdin, os.Stdout, ctrl); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
