package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/internal/service"
	"ai-casebrief-be/pkg/database"
	"ai-casebrief-be/pkg/embedding"

	"github.com/fatih/color"
)

// ingest embeds every .md and .txt file under -dir into the internal
// knowledge base synchronously, bypassing the queue.
func main() {
	dir := flag.String("dir", "knowledge", "directory of knowledge documents")
	flag.Parse()

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	knowledgeService := service.NewKnowledgeService(
		unitofwork.NewRepositoryFactory(db),
		nil,
		embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel),
		logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction()),
	)

	ctx := context.Background()
	var ok, failed int
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".md" && ext != ".txt") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key, _ := filepath.Rel(*dir, path)
		msg := &dto.EmbedKnowledgeMessage{
			DocumentKey: filepath.ToSlash(key),
			Title:       titleOf(string(raw), path),
			Content:     string(raw),
		}

		if err := knowledgeService.Ingest(ctx, msg); err != nil {
			color.Red("✗ %s: %v", msg.DocumentKey, err)
			failed++
			return nil
		}
		color.Green("✓ %s", msg.DocumentKey)
		ok++
		return nil
	})
	if err != nil {
		color.Red("Walk failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("Ingested %d documents, %d failed", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// titleOf uses the first markdown heading, else the file name.
func titleOf(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
