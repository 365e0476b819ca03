package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	questionDelay  time.Duration
	questionsFile  string
	revealDelay    time.Duration
	sessionTimeout time.Duration
	settleDelay    time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.questionDelay <= 0 || c.settleDelay <= 0 || c.revealDelay <= 0 {
		return errors.New("pacing delays must be positive")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// pacing returns the round pacing derived from configured delays.
func (c *Config) pacing() roomPacing {
	return roomPacing{
		questionDelay: c.questionDelay,
		settleDelay:   c.settleDelay,
		revealDelay:   c.revealDelay,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("HIVEMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "hivemind",
		Short:         "A party game of guessing what everyone else is thinking, served as a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: HIVEMIND_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: HIVEMIND_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: HIVEMIND_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: HIVEMIND_PROFILE)")
	fs.DurationVar(&cfg.questionDelay, "question-delay", 5*time.Second, "time the question is shown before answering opens (env: HIVEMIND_QUESTION_DELAY)")
	fs.StringVar(&cfg.questionsFile, "questions", "", "path to a custom question deck file (env: HIVEMIND_QUESTIONS)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", 10*time.Second, "time the results are shown before the next round (env: HIVEMIND_REVEAL_DELAY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are ended (env: HIVEMIND_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.settleDelay, "settle-delay", time.Second, "grace period after the last answer before results (env: HIVEMIND_SETTLE_DELAY)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: HIVEMIND_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: HIVEMIND_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HIVEMIND_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HIVEMIND_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("hivemind v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
