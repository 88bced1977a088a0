package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"github.com/sifan077/QuotaLink/internal/app/service"
	"go.uber.org/zap"
)

const (
	msgNotFound     = "NOT FOUND"
	msgForbidden    = "FORBIDDEN (not owner)"
	msgExpired      = "EXPIRED (TTL). Create a new link."
	msgLimitReached = "DISABLED (LIMIT REACHED). Create a new link."
	msgBelowUsage   = "REFUSED (limit is below clicks already used)"
	msgLastClick    = "NOTICE: last allowed click used. Link is now disabled."
	msgUnknown      = "Unknown command. Type: help"
	msgOK           = "OK"
)

// Opener launches a URL outside the process, normally in a browser.
type Opener func(url string) error

// Settings configures a Shell.
type Settings struct {
	Owner         string
	TTL           time.Duration
	PurgeInterval time.Duration
	DefaultLimit  int
	OpenBrowser   bool
	// Opener defaults to the system browser.
	Opener Opener
	Logger *zap.Logger
}

// Shell executes REPL commands against a LinkService and prints plain-text
// replies. Writes are serialized so sweeper notices can interleave safely.
type Shell struct {
	svc      service.LinkService
	settings Settings
	logger   *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewShell creates a shell that writes replies to out.
func NewShell(svc service.LinkService, settings Settings, out io.Writer) *Shell {
	if settings.Opener == nil {
		settings.Opener = browser.OpenURL
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shell{svc: svc, settings: settings, logger: logger, out: out}
}

// SetOutput redirects replies, used once the terminal is set up.
func (s *Shell) SetOutput(out io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = out
}

// Notify reports links removed by the expiry sweeper.
func (s *Shell) Notify(removed int64) {
	s.println(fmt.Sprintf("[notify] deleted expired links: %d", removed))
}

// Execute runs one command line. It returns false once the user asked to exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	args, err := SplitArgs(strings.TrimSpace(line))
	if err != nil {
		s.printError(err)
		return true
	}
	if len(args) == 0 {
		return true
	}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "exit", "quit":
		return false
	case "help":
		s.PrintHelp()
		return true
	case "uuid":
		s.println(s.settings.Owner)
		return true
	}

	reply, err := s.dispatch(ctx, cmd, args[1:])
	if err != nil {
		s.logger.Debug("command failed", zap.String("command", cmd), zap.Error(err))
		s.printError(err)
		return true
	}
	s.println(reply)
	return true
}

func (s *Shell) dispatch(ctx context.Context, cmd string, args []string) (string, error) {
	switch cmd {
	case "create":
		if len(args) < 1 {
			return "Usage: create <url> [limit]", nil
		}
		return s.create(ctx, args)
	case "open":
		if len(args) < 1 || args[0] == "" {
			return "Usage: open <code>", nil
		}
		return s.open(ctx, args[0])
	case "list":
		return s.list(ctx)
	case "info":
		if len(args) < 1 {
			return "Usage: info <code>", nil
		}
		return s.info(ctx, args[0])
	case "set-limit":
		if len(args) < 2 {
			return "Usage: set-limit <code> <limit>", nil
		}
		limit, err := parseLimit(args[1])
		if err != nil {
			return "", err
		}
		outcome, err := s.svc.SetLimit(ctx, s.settings.Owner, args[0], limit)
		if err != nil {
			return "", err
		}
		return outcomeMessage(outcome), nil
	case "delete":
		if len(args) < 1 {
			return "Usage: delete <code>", nil
		}
		outcome, err := s.svc.Delete(ctx, s.settings.Owner, args[0])
		if err != nil {
			return "", err
		}
		return outcomeMessage(outcome), nil
	default:
		return msgUnknown, nil
	}
}

func (s *Shell) create(ctx context.Context, args []string) (string, error) {
	var limit *int
	if len(args) >= 2 {
		n, err := parseLimit(args[1])
		if err != nil {
			return "", err
		}
		limit = &n
	}

	link, err := s.svc.Create(ctx, s.settings.Owner, args[0], limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("code: %s\nlimit: %d\nttl: %s", link.Code, link.ClickLimit, link.ExpiresAt().Sub(link.CreatedAt())), nil
}

func (s *Shell) open(ctx context.Context, code string) (string, error) {
	res, err := s.svc.Open(ctx, code)
	if err != nil {
		return "", err
	}
	if res.Outcome != service.OutcomeOK {
		return outcomeMessage(res.Outcome), nil
	}

	reply := "URL: " + res.Target
	if s.settings.OpenBrowser {
		if err := s.settings.Opener(res.Target); err != nil {
			s.logger.Debug("browser open failed", zap.Error(err))
			reply = "Cannot open browser. URL: " + res.Target
		} else {
			reply = "OPENED: " + res.Target
		}
	}
	if res.LastClick {
		reply += "\n" + msgLastClick
	}
	return reply, nil
}

func (s *Shell) list(ctx context.Context) (string, error) {
	links, err := s.svc.List(ctx, s.settings.Owner)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "(empty)", nil
	}

	var b strings.Builder
	for i := range links {
		l := &links[i]
		b.WriteString("-----\n")
		fmt.Fprintf(&b, "code: %s\n", l.Code)
		fmt.Fprintf(&b, "url : %s\n", l.Target)
		fmt.Fprintf(&b, "clicks: %d/%d active=%t\n", l.ClickCount, l.ClickLimit, l.Active)
		fmt.Fprintf(&b, "expires: %s", formatTime(l.ExpiresAt()))
		if i < len(links)-1 {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func (s *Shell) info(ctx context.Context, code string) (string, error) {
	res, err := s.svc.Info(ctx, s.settings.Owner, code)
	if err != nil {
		return "", err
	}
	if res.Outcome != service.OutcomeOK {
		return outcomeMessage(res.Outcome), nil
	}
	return describe(res.Link), nil
}

// PrintHelp lists the commands and the active settings.
func (s *Shell) PrintHelp() {
	var b strings.Builder
	fmt.Fprintf(&b, "user: %s\n", s.settings.Owner)
	b.WriteString("commands:\n")
	for _, c := range []string{
		"create <url> [limit]",
		"open <code>",
		"list",
		"info <code>",
		"set-limit <code> <limit>",
		"delete <code>",
		"uuid",
		"help",
		"exit",
	} {
		fmt.Fprintf(&b, "  %s\n", c)
	}
	b.WriteString("config:\n")
	fmt.Fprintf(&b, "  ttl=%s, cleanup=%s, default.limit=%d\n", s.settings.TTL, s.settings.PurgeInterval, s.settings.DefaultLimit)
	b.WriteString("examples:\n")
	b.WriteString("  create https://www.google.com/ 3\n")
	b.WriteString("  create \"https://www.google.com/\" 5\n")
	b.WriteString("  open Ab3xK91Q")
	s.println(b.String())
}

func (s *Shell) printError(err error) {
	s.println("ERROR: " + err.Error())
}

func (s *Shell) println(text string) {
	s.mu.Lock()
	out := s.out
	s.mu.Unlock()
	s.write(out, text+"\n")
}

func (s *Shell) write(out io.Writer, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(out, text); err != nil {
		s.logger.Warn("failed to write reply", zap.Error(err))
	}
}

func describe(l *model.Link) string {
	return fmt.Sprintf("code: %s\nurl : %s\nclicks: %d/%d\nactive: %t\ncreated: %s\nexpires: %s",
		l.Code, l.Target, l.ClickCount, l.ClickLimit, l.Active,
		formatTime(l.CreatedAt()), formatTime(l.ExpiresAt()))
}

func outcomeMessage(o service.Outcome) string {
	switch o {
	case service.OutcomeOK:
		return msgOK
	case service.OutcomeNotFound:
		return msgNotFound
	case service.OutcomeForbidden:
		return msgForbidden
	case service.OutcomeExpired:
		return msgExpired
	case service.OutcomeLimitReached:
		return msgLimitReached
	case service.OutcomeLimitBelowUsage:
		return msgBelowUsage
	default:
		return o.String()
	}
}

var errInvalidNumber = errors.New("invalid number")

func parseLimit(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errInvalidNumber
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
