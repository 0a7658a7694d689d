package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/assistant"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/confirm"
	"inkwell/internal/entity"
	"inkwell/internal/session"
)

// commandContext lazily wires the client stack shared by every command:
// one HTTP client, one cache, one confirmation gate, one document session.
type commandContext struct {
	cfg    *config.Config
	logger *slog.Logger

	apiURLFlag  *string
	timeoutFlag *int
	yesFlag     *bool

	once   sync.Once
	client *api.Client
	store  *cache.Store
	gate   *confirm.Gate
	sess   *session.Session
	coord  *session.Coordinator
}

func newCommandContext(cfg *config.Config, logger *slog.Logger, apiURLFlag *string, timeoutFlag *int, yesFlag *bool) *commandContext {
	return &commandContext{
		cfg:         cfg,
		logger:      logger,
		apiURLFlag:  apiURLFlag,
		timeoutFlag: timeoutFlag,
		yesFlag:     yesFlag,
	}
}

func (c *commandContext) ensure() {
	c.once.Do(func() {
		url := c.cfg.APIURL
		if c.apiURLFlag != nil && strings.TrimSpace(*c.apiURLFlag) != "" {
			url = strings.TrimSpace(*c.apiURLFlag)
		}
		timeout := c.cfg.Timeout
		if c.timeoutFlag != nil && *c.timeoutFlag > 0 {
			timeout = time.Duration(*c.timeoutFlag) * time.Second
		}

		c.client = api.New(url, timeout, c.logger)
		c.store = cache.New(c.logger)
		c.gate = confirm.NewGate()
		c.sess = session.New(c.client, c.store, c.gate, c.logger)
		c.coord = session.NewCoordinator(c.client, c.store, c.gate, c.sess, c.logger)
	})
}

func (c *commandContext) apiClient() *api.Client {
	c.ensure()
	return c.client
}

func (c *commandContext) confirmGate() *confirm.Gate {
	c.ensure()
	return c.gate
}

func (c *commandContext) cacheStore() *cache.Store {
	c.ensure()
	return c.store
}

func (c *commandContext) docSession() *session.Session {
	c.ensure()
	return c.sess
}

func (c *commandContext) coordinator() *session.Coordinator {
	c.ensure()
	return c.coord
}

func (c *commandContext) entityView(projectID int64) *entity.View {
	c.ensure()
	return entity.NewView(c.client, c.store, c.gate, projectID, c.logger)
}

func (c *commandContext) assistantSession(projectID int64) *assistant.Session {
	c.ensure()
	return assistant.NewSession(c.client, projectID, c.logger)
}

// approve prompts for a pending confirmation on the command's terminal.
// --yes approves everything without prompting. An unapproved action returns
// false with no error; the caller reports the cancellation.
func (c *commandContext) approve(cmd *cobra.Command, pending confirm.Pending) (bool, error) {
	if c.yesFlag != nil && *c.yesFlag {
		return true, nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", pending.Detail)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// runConfirmed drives a two-phase destructive action: request the pending
// confirmation, prompt, and execute with the issued token.
func (c *commandContext) runConfirmed(cmd *cobra.Command, pending confirm.Pending, execute func(confirm.Token) error) error {
	ok, err := c.approve(cmd, pending)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	return execute(pending.Token)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
