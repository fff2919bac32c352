package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/vortex/docx-redline/internal/config"
	"github.com/vortex/docx-redline/pkg/redline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var (
		originalPath = flag.String("original", "", "path to the original .docx")
		modifiedPath = flag.String("modified", "", "path to the modified .docx")
		outPath      = flag.String("out", "", "path to write the compared .docx to")
		configPath   = flag.String("config", "", "optional YAML settings file")
	)
	flag.Parse()

	if *originalPath == "" || *modifiedPath == "" || *outPath == "" {
		logger.Error("missing required flag", slog.String("usage", "redline -original a.docx -modified b.docx -out redline.docx"))
		os.Exit(1)
	}

	fs, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	settings := redline.FromFile(fs)

	original, err := openDocument(logger, *originalPath)
	if err != nil {
		os.Exit(1)
	}
	modified, err := openDocument(logger, *modifiedPath)
	if err != nil {
		os.Exit(1)
	}

	logger.Info("comparing documents", slog.String("original", *originalPath), slog.String("modified", *modifiedPath))

	compared, err := redline.Compare(original, modified, settings)
	if err != nil {
		logger.Error("comparing documents", slog.String("error", err.Error()))
		os.Exit(1)
	}

	out, err := compared.Bytes()
	if err != nil {
		logger.Error("serializing result", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		logger.Error("writing output", slog.String("path", *outPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("wrote redline", slog.String("path", *outPath))
}

func openDocument(logger *slog.Logger, path string) (redline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading document", slog.String("path", path), slog.String("error", err.Error()))
		return redline.Document{}, err
	}
	doc, err := redline.Open(data)
	if err != nil {
		logger.Error("opening document", slog.String("path", path), slog.String("error", err.Error()))
		return redline.Document{}, err
	}
	return doc, nil
}
