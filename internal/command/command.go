package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/osutrack-bridge/internal/domain"
)

// searchLimit keeps beatmap replies chat-sized.
const searchLimit = 5

// Bridge is the service surface the command table calls into.
type Bridge interface {
	LinkKey(ctx context.Context, userID, apiKey string) error
	UnlinkKey(ctx context.Context, userID string) error
	UploadScores(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error)
	QueryPlayer(ctx context.Context, userID, player string, mode domain.Mode) (*domain.PlayerProfile, error)
	SearchBeatmaps(ctx context.Context, userID string, filter domain.BeatmapFilter) ([]domain.BeatmapSummary, error)
	PeakStats(ctx context.Context, userID, player string, mode domain.Mode) (*domain.PlayerProfile, *domain.PeakStats, error)
}

// Request is one parsed chat command relayed by the bot platform.
type Request struct {
	UserID  string   `json:"user_id"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// Response carries the chat reply for a handled command.
type Response struct {
	Reply string `json:"reply"`
}

type handlerFunc func(ctx context.Context, userID string, args []string) (string, error)

type command struct {
	usage string
	about string
	run   handlerFunc
}

// Registry is the enumerated command table. Dispatch is a map lookup on the
// command name; there is no pattern matching on message text.
type Registry struct {
	bridge   Bridge
	logger   *slog.Logger
	commands map[string]command
	order    []string
}

// NewRegistry creates the command table
func NewRegistry(bridge Bridge, logger *slog.Logger) *Registry {
	r := &Registry{
		bridge:   bridge,
		logger:   logger,
		commands: make(map[string]command),
	}
	r.register("help", "help [command]", "show available commands", r.runHelp)
	r.register("link", "link <api-key>", "store your osu! API key", r.runLink)
	r.register("unlink", "unlink", "remove your stored API key", r.runUnlink)
	r.register("update", "update <player> [mode]", "upload a player's best scores to osu!track", r.runUpdate)
	r.register("user", "user <player> [mode]", "show a player's profile", r.runUser)
	r.register("search", "search <beatmapset-id> [mode]", "look up the beatmaps in a set", r.runSearch)
	r.register("peak", "peak <player> [mode]", "show a player's all-time peak rank and accuracy", r.runPeak)
	return r
}

func (r *Registry) register(name, usage, about string, run handlerFunc) {
	r.commands[name] = command{usage: usage, about: about, run: run}
	r.order = append(r.order, name)
}

// Execute dispatches one request through the command table.
func (r *Registry) Execute(ctx context.Context, req Request) (string, error) {
	if req.UserID == "" {
		return "", fmt.Errorf("%w: missing user id", domain.ErrInvalidRequest)
	}

	name := strings.ToLower(strings.TrimSpace(req.Command))
	c, ok := r.commands[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown command %q", domain.ErrInvalidRequest, name)
	}

	reply, err := c.run(ctx, req.UserID, req.Args)
	if err != nil {
		r.logger.Warn("command failed", "command", name, "user_id", req.UserID, "error", err)
		return "", err
	}
	return reply, nil
}

func (r *Registry) runHelp(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) > 0 {
		name := strings.ToLower(args[0])
		c, ok := r.commands[name]
		if !ok {
			return "", &usageError{usage: "help [command]", msg: fmt.Sprintf("unknown command %q", name)}
		}
		return fmt.Sprintf("%s - %s\nUsage: %s", name, c.about, c.usage), nil
	}

	var b strings.Builder
	b.WriteString("osu!track bridge commands:\n")
	for _, name := range r.order {
		c := r.commands[name]
		fmt.Fprintf(&b, "  %s - %s\n", c.usage, c.about)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Registry) runLink(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) != 1 {
		return "", &usageError{usage: "link <api-key>", msg: "provide your osu! API key"}
	}
	if err := r.bridge.LinkKey(ctx, userID, args[0]); err != nil {
		return "", err
	}
	// The key itself is never echoed back into chat
	return "✅ API key linked. You can now use update, user, search and peak.", nil
}

func (r *Registry) runUnlink(ctx context.Context, userID string, args []string) (string, error) {
	if err := r.bridge.UnlinkKey(ctx, userID); err != nil {
		return "", err
	}
	return "✅ API key removed.", nil
}

func (r *Registry) runUpdate(ctx context.Context, userID string, args []string) (string, error) {
	player, mode, err := playerModeArgs(args, "update <player> [mode]")
	if err != nil {
		return "", err
	}

	result, err := r.bridge.UploadScores(ctx, domain.UploadRequest{
		UserID: userID,
		Player: player,
		Mode:   mode,
	})
	if err != nil {
		return "", err
	}
	return renderUploadResult(mode, result), nil
}

func (r *Registry) runUser(ctx context.Context, userID string, args []string) (string, error) {
	player, mode, err := playerModeArgs(args, "user <player> [mode]")
	if err != nil {
		return "", err
	}

	profile, err := r.bridge.QueryPlayer(ctx, userID, player, mode)
	if err != nil {
		return "", err
	}
	return renderProfile(profile), nil
}

func (r *Registry) runSearch(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", &usageError{usage: "search <beatmapset-id> [mode]", msg: "provide a beatmapset ID"}
	}
	if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
		return "", &usageError{usage: "search <beatmapset-id> [mode]", msg: fmt.Sprintf("%q is not a numeric beatmapset ID", args[0])}
	}

	filter := domain.BeatmapFilter{
		BeatmapsetID: args[0],
		Limit:        searchLimit,
	}
	if len(args) == 2 {
		mode, err := domain.ParseMode(args[1])
		if err != nil {
			return "", err
		}
		filter.Mode = &mode
	}

	maps, err := r.bridge.SearchBeatmaps(ctx, userID, filter)
	if err != nil {
		return "", err
	}
	return renderBeatmaps(maps), nil
}

func (r *Registry) runPeak(ctx context.Context, userID string, args []string) (string, error) {
	player, mode, err := playerModeArgs(args, "peak <player> [mode]")
	if err != nil {
		return "", err
	}

	profile, peak, err := r.bridge.PeakStats(ctx, userID, player, mode)
	if err != nil {
		return "", err
	}
	return renderPeak(profile, peak, mode), nil
}

// playerModeArgs parses the common "<player> [mode]" argument shape.
func playerModeArgs(args []string, usage string) (string, domain.Mode, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", domain.ModeOsu, &usageError{usage: usage, msg: "provide a player name or ID"}
	}
	modeArg := ""
	if len(args) == 2 {
		modeArg = args[1]
	}
	mode, err := domain.ParseMode(modeArg)
	if err != nil {
		return "", domain.ModeOsu, err
	}
	return args[0], mode, nil
}

// usageError is an argument error carrying the command's usage line. It
// matches domain.ErrInvalidRequest so the HTTP layer maps it to 400.
type usageError struct {
	usage string
	msg   string
}

func (e *usageError) Error() string { return e.msg }

func (e *usageError) Is(target error) bool { return target == domain.ErrInvalidRequest }

// UserMessage renders err as chat text. Upstream failures get stable
// phrasing; raw HTTP detail and stored keys never reach chat.
func UserMessage(err error) string {
	var uerr *usageError
	if errors.As(err, &uerr) {
		return fmt.Sprintf("❌ %s\nUsage: %s", uerr.msg, uerr.usage)
	}

	switch {
	case errors.Is(err, domain.ErrNoCredential):
		return "❌ No API key linked yet. Use: link <api-key>"
	case errors.Is(err, domain.ErrAuthentication):
		return "❌ osu! rejected your API key. Link a fresh one with: link <api-key>"
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Player not found"
	case errors.Is(err, domain.ErrRateLimited):
		return "❌ The osu! API is rate limiting us, try again in a minute"
	case errors.Is(err, domain.ErrTransient):
		return "❌ Upstream is not responding, try again later"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "❌ " + strings.TrimPrefix(err.Error(), domain.ErrInvalidRequest.Error()+": ")
	default:
		return "❌ Something went wrong, please try again later"
	}
}
