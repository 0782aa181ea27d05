package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/docqa/agent/internal/config"
	"github.com/docqa/agent/internal/domain"
	"github.com/docqa/agent/internal/embedding"
	"github.com/docqa/agent/internal/ingestion"
	"github.com/docqa/agent/internal/llm"
	"github.com/docqa/agent/internal/processing"
	"github.com/docqa/agent/internal/server"
	"github.com/docqa/agent/internal/transcript"
	"github.com/docqa/agent/internal/vectorstore/memory"
	"github.com/docqa/agent/internal/vectorstore/pgvector"
	"github.com/docqa/agent/internal/workflow"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: agent <index|query|chat|serve> [flags]")
		os.Exit(1)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("config:", err)
	}

	switch os.Args[1] {
	case "index":
		runIndex(cfg, os.Args[2:])
	case "query":
		runQuery(cfg, os.Args[2:])
	case "chat":
		runChat(cfg, os.Args[2:])
	case "serve":
		runServe(cfg)
	default:
		fmt.Println("expected 'index', 'query', 'chat' or 'serve' subcommand")
		os.Exit(1)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.New(cfg.Embedder.Dimension), nil
	default:
		return pgvector.New(ctx, cfg.VectorStore.DatabaseURL, cfg.VectorStore.Table, cfg.Embedder.Dimension)
	}
}

func buildLLM(cfg *config.Config) (domain.LLM, error) {
	if cfg.LLM.Type == "openai" {
		return llm.NewOpenAI(llm.OpenAIConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Model:     cfg.LLM.Model,
		})
	}
	return llm.NewOllama(cfg.LLM.BaseURL, cfg.LLM.Model), nil
}

func buildEmbedder(cfg *config.Config) (domain.Embedder, error) {
	if cfg.Embedder.Type == "openai" {
		return embedding.NewOpenAI(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.BaseURL,
			APIKeyEnv: cfg.Embedder.APIKeyEnv,
			Model:     cfg.Embedder.Model,
			Dimension: cfg.Embedder.Dimension,
		})
	}
	return embedding.NewOllama(cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.Dimension), nil
}

func buildWorkflow(ctx context.Context, cfg *config.Config) (*workflow.Workflow, domain.VectorStore, error) {
	model, err := buildLLM(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	wf := workflow.New(model, embedder, store, workflow.Options{
		TopK:         cfg.Workflow.TopK,
		MaxRetries:   cfg.Workflow.MaxRetries,
		MinChunkSize: cfg.Ingestion.MinChunkSize,
		Temperature:  cfg.LLM.Temperature,
	})
	return wf, store, nil
}

func runIndex(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	path := fs.String("path", "./data", "path to folder to index")
	driveFolder := fs.String("drive-folder", "", "Google Drive folder ID to download before indexing")
	fs.Parse(args)

	// Ctrl-C stops ingestion before the next chunk; indexed chunks stay
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatal("embedder:", err)
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal("store:", err)
	}
	if err := store.Init(ctx); err != nil {
		log.Fatal("store init:", err)
	}

	var ocr ingestion.OCREngine
	if cfg.Ingestion.OCR == "mock" {
		ocr = ingestion.NewMockOCR()
	} else {
		ocr = ingestion.NewTesseractOCR()
	}

	files, err := ingestion.LoadLocalFiles(*path)
	if err != nil {
		log.Fatal("load files:", err)
	}
	if *driveFolder != "" {
		downloaded, err := downloadDriveFolder(ctx, cfg, *driveFolder)
		if err != nil {
			log.Fatal("drive download:", err)
		}
		log.Printf("downloaded %d files from Drive folder %s", len(downloaded), *driveFolder)
		files = append(files, downloaded...)
	}
	log.Printf("indexing %d files from %s", len(files), *path)

	pipeline := &ingestion.Pipeline{
		Extractor: ingestion.NewFileExtractor(ocr),
		Chunker:   processing.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap, cfg.Ingestion.MinChunkSize),
		Embedder:  embedder,
		Store:     store,
		Source:    "local",
	}
	res, err := pipeline.Run(ctx, files)
	if err != nil {
		log.Printf("ingestion stopped: %v", err)
	}
	fmt.Printf("Indexed %d files (%d chunks), skipped %d.\n", res.Files, res.Chunks, len(res.Skipped))
}

// downloadDriveFolder runs the OAuth flow (reusing a cached token when one
// exists) and fetches the folder's supported files into data/drive.
func downloadDriveFolder(ctx context.Context, cfg *config.Config, folderID string) ([]string, error) {
	src := ingestion.NewDriveSource(
		os.Getenv(cfg.Drive.ClientIDEnv),
		os.Getenv(cfg.Drive.ClientSecretEnv),
		cfg.Drive.RedirectURL,
	)

	token, err := loadDriveToken(cfg.Drive.TokenFile)
	if err != nil {
		fmt.Println("Authorize access at:", src.AuthURL())
		fmt.Print("Enter the authorization code: ")
		var code string
		if _, err := fmt.Scanln(&code); err != nil {
			return nil, fmt.Errorf("reading authorization code: %w", err)
		}
		token, err = src.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		if err := saveDriveToken(cfg.Drive.TokenFile, token); err != nil {
			log.Printf("warning: failed to cache drive token: %v", err)
		}
	}

	return src.Download(ctx, token, folderID, filepath.Join("data", "drive"))
}

func loadDriveToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func saveDriveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func runQuery(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	queryText := fs.String("q", "", "query text")
	showTrace := fs.Bool("trace", false, "print the agentic trace")
	fs.Parse(args)

	if *queryText == "" {
		fmt.Println("Please provide -q \"your query\"")
		os.Exit(1)
	}

	ctx := context.Background()
	wf, _, err := buildWorkflow(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	state, err := wf.Run(ctx, *queryText, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.FinalAnswer)
	if *showTrace {
		printTrace(state)
	}
}

func runChat(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	outDir := fs.String("transcripts", "outputs/transcripts", "directory for saved transcripts")
	fs.Parse(args)

	ctx := context.Background()
	wf, store, err := buildWorkflow(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	var tstore *transcript.Store
	if cfg.Server.TranscriptsDB != "" {
		tstore, err = transcript.NewStore(cfg.Server.TranscriptsDB)
		if err != nil {
			log.Printf("warning: transcript store disabled: %v", err)
		} else if err := tstore.Init(ctx); err != nil {
			log.Printf("warning: transcript store disabled: %v", err)
			tstore = nil
		}
	}

	sessionID := uuid.NewString()
	var history []workflow.Turn
	var tr workflow.Transcript

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	if n, err := store.Count(ctx); err == nil {
		fmt.Printf("Vector store has %d chunks indexed.\n", n)
	}
	fmt.Println("Type a question, 'save' to export the transcript, 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cyan.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Println("bye")
			return
		case "save":
			saveTranscript(ctx, &tr, *outDir, sessionID, tstore)
			continue
		}

		state, err := wf.Run(ctx, input, history)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}

		green.Println("\nassistant>")
		fmt.Println(state.FinalAnswer)
		if state.Confidence != "" && state.Confidence != "N/A" {
			fmt.Printf("(confidence: %s)\n", state.Confidence)
		}

		history = append(history,
			workflow.Turn{Role: "user", Content: input},
			workflow.Turn{Role: "assistant", Content: state.FinalAnswer},
		)
		tr.Append(state)
	}
}

func saveTranscript(ctx context.Context, tr *workflow.Transcript, dir, sessionID string, tstore *transcript.Store) {
	if len(tr.Turns) == 0 {
		fmt.Println("no chat history to save")
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("save failed: %v", err)
		return
	}
	name := filepath.Join(dir, fmt.Sprintf("transcript_%s.md", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(name, []byte(tr.Format()), 0o644); err != nil {
		log.Printf("save failed: %v", err)
		return
	}
	fmt.Println("transcript saved to:", name)
	if tstore != nil {
		if err := tstore.Save(ctx, sessionID, tr); err != nil {
			log.Printf("warning: db save failed: %v", err)
		}
	}
}

func runServe(cfg *config.Config) {
	ctx := context.Background()
	wf, store, err := buildWorkflow(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	srv := server.New(wf, store, cfg.Server.RedisURL, cfg.Server.Port,
		time.Duration(cfg.Server.CacheTTLSecs)*time.Second)
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}

func printTrace(state *workflow.State) {
	fmt.Println("\n--- trace ---")
	for _, e := range state.Trace {
		fmt.Printf("%s  %-10s %s -> %s\n", e.Timestamp.Format("15:04:05.000"), e.Stage, e.Input, e.Output)
	}
}
