package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/swingscope/internal/analysis"
	"github.com/ayusman/swingscope/internal/app"
	"github.com/ayusman/swingscope/internal/config"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/internal/server"
	"github.com/ayusman/swingscope/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Swingscope - Golf Swing Analysis

Usage:
  swingscope [flags] serve
  swingscope [flags] analyze <clip.mp4|landmarks.json>

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	dbPath := flag.String("db", "", "SQLite database path (serve defaults to ~/.swingscope/swingscope.db)")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	tuningPath := flag.String("tuning", "", "JSON tuning file overriding analysis defaults")
	webDir := flag.String("web", "", "directory of static files to serve")
	trim := flag.Bool("trim", true, "drop still frames around the swing when analysing clips")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	analysisCfg := analysis.DefaultConfig()
	if *tuningPath != "" {
		tuning, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		analysisCfg = tuning.AnalysisConfig()
		log.Printf("Loaded tuning config from %s", *tuningPath)
	}

	switch flag.Arg(0) {
	case "serve":
		serve(*dbPath, *addr, *webDir, analysisCfg, *trim)
	case "analyze":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		analyze(flag.Arg(1), *dbPath, analysisCfg, *trim)
	default:
		usage()
		os.Exit(2)
	}
}

func serve(dbPath, addr, webDir string, cfg analysis.Config, trim bool) {
	fmt.Println("Swingscope - Golf Swing Analysis")

	if dbPath == "" {
		dbPath = defaultDBPath()
	}
	st := openStore(dbPath)
	defer st.Close()

	a := app.New(app.Config{Store: st, Analysis: &cfg, TrimStill: trim})
	defer a.Close()

	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Runner:    a,
	})

	fmt.Printf("Starting server on %s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func analyze(path, dbPath string, cfg analysis.Config, trim bool) {
	appCfg := app.Config{Analysis: &cfg, TrimStill: trim}
	if dbPath != "" {
		st := openStore(dbPath)
		defer st.Close()
		appCfg.Store = st
	}

	a := app.New(appCfg)
	defer a.Close()

	var (
		report *app.Report
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		report, err = analyzeLandmarks(a, path)
	} else {
		report, err = a.AnalyzeClip(path)
	}
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}

// analyzeLandmarks analyses a landmark sequence already extracted to JSON.
func analyzeLandmarks(a *app.App, path string) (*app.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seq, err := pose.ReadSequence(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return a.AnalyzeSequence(name, path, seq)
}

func openStore(path string) *store.Store {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	return st
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	return filepath.Join(homeDir, ".swingscope", "swingscope.db")
}

// findWebDir searches for the web directory in common locations.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".swingscope", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
