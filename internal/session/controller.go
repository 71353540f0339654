// Package session drives the interactive chat: credential and URL
// acquisition, content extraction, and the read/dispatch/print loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"webchat/internal/config"
	"webchat/internal/extract"
	"webchat/internal/provider"
	"webchat/internal/responder"
	"webchat/internal/term"
)

// ErrInterrupted is reported by a LineReader when the user interrupts
// input (Ctrl-C). The loop treats it exactly like a quit command.
var ErrInterrupted = errors.New("input interrupted")

// ErrSetupAborted means the user declined to provide a credential or URL.
var ErrSetupAborted = errors.New("setup aborted")

// LineReader supplies one line of console input per call.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// Fetcher is the content-extraction boundary.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*extract.PageContent, error)
}

// Options wires a Controller. Zero-value fields get defaults in New.
type Options struct {
	Config      config.Config
	Input       LineReader
	Output      io.Writer
	Logger      *log.Logger
	Fetcher     Fetcher
	BuildClient func(cfg provider.Config) provider.Client
	Theme       term.Theme
	Progress    bool
	// InitialURL skips the first URL prompt when non-empty.
	InitialURL string
}

// Controller owns the single mutable session: one credential, one website
// context, one history. Lifetime is one program run.
type Controller struct {
	cfg        config.Config
	input      LineReader
	out        io.Writer
	logger     *log.Logger
	fetcher    Fetcher
	buildNew   func(cfg provider.Config) provider.Client
	theme      term.Theme
	progress   bool
	initialURL string

	responder  *responder.Responder
	currentURL string
}

func New(opts Options) *Controller {
	c := &Controller{
		cfg:        opts.Config,
		input:      opts.Input,
		out:        opts.Output,
		logger:     opts.Logger,
		fetcher:    opts.Fetcher,
		buildNew:   opts.BuildClient,
		theme:      opts.Theme,
		progress:   opts.Progress,
		initialURL: strings.TrimSpace(opts.InitialURL),
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.logger == nil {
		c.logger = log.New(os.Stderr)
	}
	if c.fetcher == nil {
		c.fetcher = extract.New(
			time.Duration(opts.Config.Fetch.TimeoutSec)*time.Second,
			opts.Config.Fetch.UserAgent,
			opts.Config.Fetch.MaxPageSizeMB,
		)
	}
	if c.buildNew == nil {
		c.buildNew = func(cfg provider.Config) provider.Client {
			return provider.NewOpenAIClient(cfg)
		}
	}
	return c
}

// Setup acquires the credential and first URL and extracts the initial
// website context. Any error here is fatal to the program.
func (c *Controller) Setup(ctx context.Context) error {
	c.printBanner()

	key, err := c.acquireKey()
	if err != nil {
		return err
	}

	c.responder = responder.New(c.buildNew(provider.Config{
		BaseURL:   c.cfg.Provider.BaseURL,
		APIKey:    key,
		Model:     c.cfg.Provider.Model,
		TimeoutMS: c.cfg.Provider.TimeoutMS,
	}))

	rawURL := c.initialURL
	if rawURL == "" {
		rawURL, err = c.acquireURL()
		if err != nil {
			return err
		}
		if rawURL == "" {
			return fmt.Errorf("%w: website URL is required", ErrSetupAborted)
		}
	} else {
		rawURL, err = NormalizeURL(rawURL)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
	}

	content, err := c.extractContent(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("extract website content: %w", err)
	}
	c.responder.SetContext(content)
	c.currentURL = rawURL
	c.printExtractionSummary(content)
	return nil
}

// acquireKey prefers the configured/environment credential and prompts
// only when it is absent. A key failing the "AI" prefix heuristic draws a
// warning but is used regardless.
func (c *Controller) acquireKey() (string, error) {
	key := strings.TrimSpace(c.cfg.Provider.APIKey)
	if key != "" {
		fmt.Fprintln(c.out, c.theme.Success.Render("Found Google Gemini API key in environment."))
	} else {
		fmt.Fprintln(c.out, "Google Gemini API key required.")
		fmt.Fprintln(c.out, c.theme.Muted.Render("Get one from https://makersuite.google.com/app/apikey or set GOOGLE_API_KEY."))
		line, err := c.input.ReadLine("Please enter your Google Gemini API key: ")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSetupAborted, err)
		}
		key = strings.TrimSpace(line)
		if key == "" {
			return "", fmt.Errorf("%w: API key is required", ErrSetupAborted)
		}
	}
	if !strings.HasPrefix(key, "AI") {
		c.logger.Warn("Google API keys typically start with \"AI\"; using the key anyway")
	}
	return key, nil
}

// acquireURL prompts until a valid URL is entered. An empty entry returns
// ("", nil): setup treats that as an abort, "new url" as a cancel.
func (c *Controller) acquireURL() (string, error) {
	fmt.Fprintln(c.out, "Enter the URL of the website you want the chatbot to learn about.")
	for {
		line, err := c.input.ReadLine("Enter website URL: ")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSetupAborted, err)
		}
		raw := strings.TrimSpace(line)
		if raw == "" {
			return "", nil
		}
		normalized, err := NormalizeURL(raw)
		if err != nil {
			fmt.Fprintln(c.out, c.theme.Error.Render("Invalid URL format. Please try again."))
			continue
		}
		return normalized, nil
	}
}

// NormalizeURL prefixes https:// when no scheme is present and requires a
// parseable host.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return raw, nil
}

func (c *Controller) extractContent(ctx context.Context, pageURL string) (*extract.PageContent, error) {
	fmt.Fprintln(c.out, c.theme.Info.Render("Extracting website content from "+pageURL+" ..."))
	stop := term.Progress(c.progress, "fetching "+pageURL)
	content, err := c.fetcher.Fetch(ctx, pageURL)
	stop()
	return content, err
}

// Run is the chat loop. It returns nil on any graceful quit (commands,
// interrupt, closed stdin); per-turn failures are reported and the loop
// continues.
func (c *Controller) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.theme.Banner.Render("Chat started. Type 'quit', 'exit', or 'bye' to end the conversation."))
	fmt.Fprintln(c.out, c.theme.Muted.Render("Current website: "+c.currentURL))
	fmt.Fprintln(c.out)

	for {
		line, err := c.input.ReadLine(c.theme.Prompt.Render("You: "))
		if err != nil {
			if errors.Is(err, ErrInterrupted) || errors.Is(err, io.EOF) {
				c.printGoodbye()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "bye", "q":
			c.printGoodbye()
			return nil
		case "help":
			c.printHelp()
			continue
		case "info":
			c.printInfo()
			continue
		}

		if strings.HasPrefix(strings.ToLower(input), "new url") {
			c.changeWebsite(ctx)
			continue
		}

		stop := term.Progress(c.progress, "thinking")
		reply := c.responder.Chat(ctx, input)
		stop()
		c.printReply(reply)
	}
}

// changeWebsite re-runs URL acquisition and extraction. On any failure the
// previous context stays active; history is never cleared.
func (c *Controller) changeWebsite(ctx context.Context) {
	fmt.Fprintln(c.out, c.theme.Info.Render("Changing website..."))
	pageURL, err := c.acquireURL()
	if err != nil || pageURL == "" {
		return
	}
	content, fetchErr := c.extractContent(ctx, pageURL)
	if fetchErr != nil {
		c.logger.Error("failed to extract content from new website", "url", pageURL, "err", fetchErr)
		fmt.Fprintln(c.out, c.theme.Error.Render("Failed to extract content from new website; keeping the previous one."))
		return
	}
	c.responder.SetContext(content)
	c.currentURL = pageURL
	fmt.Fprintln(c.out, c.theme.Success.Render("Website changed successfully!"))
	fmt.Fprintln(c.out, "New title: "+content.Title)
}

func (c *Controller) printBanner() {
	fmt.Fprintln(c.out, c.theme.Banner.Render("Website Content Chatbot"))
	fmt.Fprintln(c.out, c.theme.Muted.Render("Ask questions about any website's content."))
	fmt.Fprintln(c.out)
}

func (c *Controller) printGoodbye() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Goodbye! Thanks for using the Website Content Chatbot.")
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.out, "Available commands:")
	fmt.Fprintln(c.out, "  <question>            ask anything about the website content")
	fmt.Fprintln(c.out, "  help                  show this help message")
	fmt.Fprintln(c.out, "  info                  show current website information")
	fmt.Fprintln(c.out, "  new url               change to a different website")
	fmt.Fprintln(c.out, "  quit / exit / bye / q end the conversation")
}

func (c *Controller) printInfo() {
	content := c.responder.Content()
	if content == nil {
		return
	}
	fmt.Fprintln(c.out, c.theme.Info.Render("Current website information:"))
	fmt.Fprintln(c.out, "  URL:         "+content.URL)
	fmt.Fprintln(c.out, "  Title:       "+content.Title)
	fmt.Fprintln(c.out, "  Description: "+content.MetaDescription)
	fmt.Fprintf(c.out, "  Links found: %d\n", len(content.Links))
	fmt.Fprintf(c.out, "  Headings:    %d\n", len(content.Headings))
	fmt.Fprintf(c.out, "  Context:     ~%d tokens\n", c.responder.ContextTokens())
}

func (c *Controller) printExtractionSummary(content *extract.PageContent) {
	fmt.Fprintln(c.out, c.theme.Success.Render("Website content extracted successfully!"))
	fmt.Fprintln(c.out, "  Title:          "+content.Title)
	fmt.Fprintf(c.out, "  Content length: %d characters\n", len([]rune(content.MainContent)))
	fmt.Fprintf(c.out, "  Links found:    %d\n", len(content.Links))
	fmt.Fprintf(c.out, "  Headings found: %d\n", len(content.Headings))
	fmt.Fprintf(c.out, "  Context size:   ~%d tokens\n", c.responder.ContextTokens())
	fmt.Fprintln(c.out)
}

func (c *Controller) printReply(reply string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.theme.BotLabel.Render("Bot:"))
	if c.cfg.Render.Markdown {
		fmt.Fprintln(c.out, term.RenderMarkdown(reply, c.cfg.Render.Width))
	} else {
		fmt.Fprintln(c.out, reply)
	}
	fmt.Fprintln(c.out)
}

// Responder exposes the active responder, nil before Setup.
func (c *Controller) Responder() *responder.Responder {
	return c.responder
}

// CurrentURL returns the URL of the active website context.
func (c *Controller) CurrentURL() string {
	return c.currentURL
}
