package shell

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
)

// ConsoleProgress logs each progress update it receives for one piece of content.
type ConsoleProgress struct {
	logger zerolog.Logger
	title  string
}

func NewConsoleProgress(logger zerolog.Logger, title string) *ConsoleProgress {
	return &ConsoleProgress{logger: logger, title: title}
}

func (this *ConsoleProgress) Progress(update contracts.ProgressUpdate) {
	this.logger.Info().
		Str("content", this.title).
		Str("completed", humanize.Bytes(uint64(update.Completed))).
		Str("total", humanize.Bytes(uint64(update.Total))).
		Str("progress", fmt.Sprintf("%.1f%%", update.Fraction()*100)).
		Msg("downloading")
}
