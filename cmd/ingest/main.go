// Actualiza la base de conocimiento: carga documentos de un directorio,
// los parte en fragmentos con solape, los vectoriza y los guarda en la
// tabla de documentos.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"rag-chat/internal/config"
	"rag-chat/internal/db"
	"rag-chat/internal/domain"
	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
)

const (
	chunkSize    = 500
	chunkOverlap = 100
)

func main() {
	dir := flag.String("dir", "./docs", "directorio con documentos .txt/.md")
	force := flag.Bool("force", false, "reingestar aunque la base ya tenga documentos")
	flag.Parse()

	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL es requerida para ingestar documentos")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	docRepo := repository.NewPgDocumentRepository(pool)

	count, err := docRepo.Count(ctx)
	if err != nil {
		log.Fatalf("contar documentos: %v", err)
	}
	if count > 0 && !*force {
		fmt.Println("La base de conocimiento ya está poblada, no hay nada que hacer (usa -force para reingestar).")
		return
	}

	embedder := llm.NewAzureClient(
		cfg.OpenAIEndpoint,
		cfg.OpenAIAPIKey,
		cfg.OpenAIDeploymentName,
		cfg.OpenAIEmbeddingDeployment,
		cfg.OpenAIAPIVersion,
		logger,
	)

	files, err := listDocumentFiles(*dir)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		fmt.Printf("No se encontraron documentos en %s, no se hará nada.\n", *dir)
		return
	}

	var stored int
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("leer %s: %v", path, err)
		}

		for _, chunk := range splitText(string(content), chunkSize, chunkOverlap) {
			embedding, err := embedder.Embed(ctx, chunk)
			if err != nil {
				log.Fatalf("vectorizar fragmento de %s: %v", path, err)
			}

			doc := domain.Document{
				ID:        uuid.NewString(),
				Content:   chunk,
				Source:    filepath.Base(path),
				Embedding: pgvector.NewVector(embedding),
				CreatedAt: time.Now().UTC(),
			}
			if err := docRepo.Create(ctx, doc); err != nil {
				log.Fatalf("guardar fragmento de %s: %v", path, err)
			}
			stored++
		}
		logger.Info("document ingested", zap.String("file", filepath.Base(path)))
	}

	fmt.Printf("Base de conocimiento actualizada: %d fragmentos de %d documentos.\n", stored, len(files))
}

func listDocumentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("leer directorio %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// splitText parte el texto en fragmentos de hasta size runas con solape
// entre fragmentos consecutivos.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
