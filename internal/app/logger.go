package app

import (
	"log/slog"
	"os"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

func NewLogger() logx.Logger {
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logx.NewSlogAdapter(base)
}
