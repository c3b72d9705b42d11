package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const folderResolveAttempts = 5

// folderBackoffUnit scales the retry backoff; tests shrink it.
var folderBackoffUnit = time.Second

// resolveFolder returns the id of the destination folder with the given
// name, creating it when missing. Names compare case-insensitively. The
// note store is eventually consistent after a create, so a freshly created
// folder may not show up in the next list; each attempt re-lists before
// creating, with exponential backoff between attempts. Exhaustion is fatal
// for the pass.
func resolveFolder(ctx context.Context, store NoteStore, name string, logger *slog.Logger) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= folderResolveAttempts; attempt++ {
		folders, err := store.ListFolders(ctx)
		if err == nil {
			for _, f := range folders {
				if strings.EqualFold(f.Title, name) {
					return f.ID, nil
				}
			}
			created, createErr := store.CreateFolder(ctx, name)
			if createErr == nil {
				return created.ID, nil
			}
			err = createErr
		}

		lastErr = err
		if attempt == folderResolveAttempts {
			break
		}

		backoff := time.Duration(1<<attempt) * folderBackoffUnit
		logger.Warn("folder resolution failed, retrying",
			"folder", name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("resolve folder %q after %d attempts: %w", name, folderResolveAttempts, lastErr)
}
