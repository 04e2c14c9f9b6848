package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

// Row is one archived giveaway.
type Row struct {
	ID          string `csv:"id"`
	ChannelID   string `csv:"channel_id"`
	HostID      string `csv:"host_id"`
	Prize       string `csv:"prize"`
	WinnerCount int    `csv:"winners"`
	Deadline    int64  `csv:"deadline"`
	EntryCount  int    `csv:"entry_count"`
	Entrants    string `csv:"entrants"`
	ArchivedAt  string `csv:"archived_at"`
}

// CSVArchiver appends expired giveaways to a CSV file, writing the header
// only when the file is new.
type CSVArchiver struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewCSVArchiver(path string) *CSVArchiver {
	return &CSVArchiver{path: path, now: time.Now}
}

func (a *CSVArchiver) Archive(_ context.Context, events []giveaway.Event, entries map[string][]giveaway.Entry) error {
	if len(events) == 0 {
		return nil
	}

	archivedAt := a.now().UTC().Format(time.RFC3339)
	rows := make([]Row, 0, len(events))
	for _, event := range events {
		userIDs := make([]string, 0, len(entries[event.ID]))
		for _, entry := range entries[event.ID] {
			userIDs = append(userIDs, entry.UserID)
		}

		rows = append(rows, Row{
			ID:          event.ID,
			ChannelID:   event.ChannelID,
			HostID:      event.HostID,
			Prize:       event.Prize,
			WinnerCount: event.WinnerCount,
			Deadline:    event.Deadline,
			EntryCount:  len(userIDs),
			Entrants:    strings.Join(userIDs, ";"),
			ArchivedAt:  archivedAt,
		})
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, isNew, err := a.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if isNew {
		err = gocsv.MarshalFile(&rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(&rows, f)
	}
	if err != nil {
		return fmt.Errorf("error writing archive %s: %w", a.path, err)
	}

	return f.Sync()
}

func (a *CSVArchiver) open() (*os.File, bool, error) {
	info, err := os.Stat(a.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	isNew := err != nil || info.Size() == 0

	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, false, fmt.Errorf("error creating %s directory: %w", dir, err)
		}
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, err
	}

	return f, isNew, nil
}

// ReadAll loads every archived row.
func ReadAll(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := []Row{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

var _ giveaway.Archiver = (*CSVArchiver)(nil)
