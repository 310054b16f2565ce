package count

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dtnitsch/wordfreq/internal/common"
	"github.com/dtnitsch/wordfreq/models"
	"github.com/dtnitsch/wordfreq/pkg/caching"
	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/fetcher"
	"github.com/dtnitsch/wordfreq/pkg/parser"
	"github.com/dtnitsch/wordfreq/pkg/storage"
)

// ErrNoText means a remote source produced nothing to count.
var ErrNoText = errors.New("no text extracted")

// Loader turns a Source into plain text. Fetch and markup stripping live
// here so the counter only ever sees prose.
type Loader struct {
	Fetcher *fetcher.Fetcher
	Cache   *caching.Cache // nil disables caching
	Parser  *parser.Parser
	Storage *storage.Storage
	Stdin   io.Reader
	Logger  *slog.Logger
}

// Load reads src. URL sources that fail to download or that yield no text
// after extraction return an error so the counter is never started.
func (l *Loader) Load(ctx context.Context, src Source, mode parser.Mode, forceFetch bool) (*Loaded, error) {
	switch src.Kind {
	case db.SourceText:
		return &Loaded{Text: src.Location}, nil
	case db.SourceFile:
		stats, err := l.Storage.GetFileStats(src.Location)
		if err != nil {
			return nil, err
		}
		l.Logger.Info("Reading file", "path", src.Location, "bytes", stats.SizeBytes, "modified", stats.ModTime)
		text, err := l.Storage.ReadText(src.Location)
		if err != nil {
			return nil, err
		}
		return &Loaded{Text: text}, nil
	case db.SourceStdin:
		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return &Loaded{Text: string(data)}, nil
	case db.SourceURL:
		return l.loadURL(ctx, src.Location, mode, forceFetch)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func (l *Loader) loadURL(ctx context.Context, rawURL string, mode parser.Mode, forceFetch bool) (*Loaded, error) {
	var entry *caching.Entry
	fromCache := false

	if l.Cache != nil && !forceFetch {
		if cached, ok := l.Cache.Get(rawURL); ok {
			l.Logger.Info("Document found in cache, using it", "url", rawURL, "fetched_at", cached.FetchedAt)
			entry = cached
			fromCache = true
		}
	}

	if entry == nil {
		l.Logger.Info("Fetching document from network", "url", rawURL)
		resp, err := l.Fetcher.Get(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		entry = &caching.Entry{URL: rawURL, ContentType: resp.ContentType, Body: string(resp.Body)}
		if l.Cache != nil {
			if err := l.Cache.Set(*entry); err != nil {
				l.Logger.Warn("Failed to store document in cache", "url", rawURL, "error", err)
			}
		}
		l.Logger.Info("Fetched document", "url", rawURL, "final_url", resp.FinalURL, "bytes", len(resp.Body), "content_type", resp.ContentType)
	}

	doc, err := l.Parser.ExtractText(rawURL, []byte(entry.Body), entry.ContentType, mode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w from %s", ErrNoText, rawURL)
	}

	return &Loaded{
		Text:        doc.Text,
		Title:       doc.Title,
		ContentType: entry.ContentType,
		FromCache:   fromCache,
	}, nil
}

// ResolveSource picks the single input source from the flag values.
// No flag at all means stdin.
func ResolveSource(rawURL string, defaultURL bool, file string, text string, textSet bool) (Source, error) {
	var sources []Source
	if rawURL != "" {
		cleaned, err := common.ValidateURL(rawURL)
		if err != nil {
			return Source{}, err
		}
		sources = append(sources, Source{Kind: db.SourceURL, Location: cleaned})
	}
	if defaultURL {
		sources = append(sources, Source{Kind: db.SourceURL, Location: models.DefaultURL})
	}
	if file != "" {
		if file == "-" {
			sources = append(sources, Source{Kind: db.SourceStdin, Location: "-"})
		} else {
			sources = append(sources, Source{Kind: db.SourceFile, Location: file})
		}
	}
	if textSet {
		sources = append(sources, Source{Kind: db.SourceText, Location: text})
	}

	switch len(sources) {
	case 0:
		return Source{Kind: db.SourceStdin, Location: "-"}, nil
	case 1:
		return sources[0], nil
	default:
		return Source{}, fmt.Errorf("use only one of --url, --default-url, --file or --text")
	}
}
