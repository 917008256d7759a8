// Package loader reads scraped help-center articles from disk.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// ErrInvalidArticle marks a record missing a required field.
var ErrInvalidArticle = errors.New("invalid article")

// ErrUnsupportedFormat is returned for files that are neither .json nor .jsonl.
var ErrUnsupportedFormat = errors.New("unsupported article file format")

// ArticleLoader implements ports.ArticleLoader. A .json file holds one array
// of articles; a .jsonl file holds one article per line. Invalid records are
// logged and skipped so a single bad scrape does not block ingestion.
type ArticleLoader struct {
	logger *zap.Logger
}

// NewArticleLoader creates a loader.
func NewArticleLoader(logger *zap.Logger) *ArticleLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleLoader{logger: logger}
}

// Load reads all valid articles from path.
func (l *ArticleLoader) Load(ctx context.Context, path string) ([]entities.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}

	var raw []entities.Article
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = decodeArray(data)
	case ".jsonl", ".ndjson":
		raw, err = decodeLines(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	articles := make([]entities.Article, 0, len(raw))
	for i, a := range raw {
		a = normalize(a)
		if err := Validate(a); err != nil {
			l.logger.Warn("skipping article", zap.Int("index", i), zap.String("url", a.URL), zap.Error(err))
			continue
		}
		articles = append(articles, a)
	}

	l.logger.Info("loaded articles",
		zap.String("path", path),
		zap.Int("loaded", len(articles)),
		zap.Int("skipped", len(raw)-len(articles)),
	)
	return articles, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *ArticleLoader) SupportedExtensions() []string {
	return []string{".json", ".jsonl", ".ndjson"}
}

// Validate checks the fields ingestion depends on.
func Validate(a entities.Article) error {
	switch {
	case a.URL == "":
		return fmt.Errorf("%w: missing url", ErrInvalidArticle)
	case a.Header == "":
		return fmt.Errorf("%w: missing header", ErrInvalidArticle)
	case a.Content == "":
		return fmt.Errorf("%w: missing content", ErrInvalidArticle)
	}
	return nil
}

func normalize(a entities.Article) entities.Article {
	a.URL = strings.TrimSpace(a.URL)
	a.Category = strings.TrimSpace(a.Category)
	a.Header = strings.TrimSpace(a.Header)
	a.Content = strings.TrimSpace(a.Content)
	return a
}

func decodeArray(data []byte) ([]entities.Article, error) {
	var out []entities.Article
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeLines(data []byte) ([]entities.Article, error) {
	var out []entities.Article
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var a entities.Article
		if err := json.Unmarshal(b, &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, a)
	}
	return out, scanner.Err()
}
