package cli

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/extract"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/seed"
	"github.com/jmylchreest/rickrack/internal/session"
)

type harmonyOptions struct {
	rule     string
	sync     string
	overflow string
	edits    []string
	random   bool
}

func newHarmonyCmd(g *globals) *cobra.Command {
	opts := &harmonyOptions{}

	cmd := &cobra.Command{
		Use:   "harmony <hex>",
		Short: "Build a five-colour harmony from an anchor colour",
		Long: `Build a five-colour set from an anchor colour and a harmony rule.

Slot 0 is the anchor. Under a named rule every other slot is derived from it;
editing any slot moves the anchor so the rule still holds. Under the custom
rule slots are free and the synchronization mode decides how siblings follow
an edit.

Rules: ` + joinRules() + `
Sync modes: ` + joinSyncs() + `

Examples:
  # Triad from pure red
  rickrack harmony --rule triad FF0000

  # Free slots where every edit shifts the others by the same hue
  rickrack harmony --rule custom --sync equidistant --edit 1=00FF00 336699`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarmony(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.rule, "rule", "r", "", "harmony rule (default from config)")
	cmd.Flags().StringVarP(&opts.sync, "sync", "s", "", "synchronization mode for custom edits (default from config)")
	cmd.Flags().StringVar(&opts.overflow, "overflow", "", "overflow policy for the anchor: "+strings.Join(colour.ValidOverflows(), ", "))
	cmd.Flags().StringArrayVarP(&opts.edits, "edit", "e", nil, "edit a slot after building, as index=hex (repeatable)")
	cmd.Flags().BoolVar(&opts.random, "random", false, "replace the anchor with a random colour (seeded from the config)")
	addPreviewFlag(cmd)
	return cmd
}

func runHarmony(cmd *cobra.Command, g *globals, opts *harmonyOptions, hex string) error {
	var rng *rand.Rand
	if opts.random {
		var (
			value int64
			err   error
		)
		rng, value, err = seed.New(extract.Pixels{}, "", g.cfg.Seed)
		if err != nil {
			return fmt.Errorf("failed to seed random source: %w", err)
		}
		g.logger.Debug("randomizing anchor", "mode", g.cfg.Seed.Mode, "seed", value)
	}

	sess, err := buildSession(g, hex, opts.rule, opts.overflow, rng)
	if err != nil {
		return err
	}

	syncName := g.cfg.Colour.Sync
	if opts.sync != "" {
		syncName = opts.sync
	}
	mode, ok := harmony.ParseSync(syncName)
	if !ok {
		return fmt.Errorf("invalid sync mode: %s (valid: %s)", syncName, joinSyncs())
	}
	sess.SetSync(mode)

	if opts.random {
		sess.Randomize()
		sess.Backup()
	}

	for _, edit := range opts.edits {
		slot, c, err := parseEdit(edit)
		if err != nil {
			return err
		}
		sess.SetSlot(slot, c)
		sess.Backup()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rule: %s  sync: %s\n\n", sess.Rule(), sess.Sync())
	slots := sess.Slots()
	fmt.Fprint(out, slotTable(slots[:], previewEnabled(cmd)))
	return nil
}

// buildSession creates a session from an anchor hex and optional rule and
// overflow names, falling back to the configuration. A nil rng is seeded
// from the clock.
func buildSession(g *globals, hex, ruleName, overflowName string, rng *rand.Rand) (*session.Session, error) {
	anchor, ok := colour.ParseHex(hex)
	if !ok {
		return nil, fmt.Errorf("invalid colour %q: expected 6 hex digits", hex)
	}
	if overflowName == "" {
		overflowName = g.cfg.Colour.Overflow
	}
	anchor = anchor.WithOverflow(colour.ParseOverflow(overflowName))

	if ruleName == "" {
		ruleName = g.cfg.Colour.Rule
	}
	rule, ok := harmony.ParseRule(ruleName)
	if !ok {
		return nil, fmt.Errorf("invalid rule: %s (valid: %s)", ruleName, joinRules())
	}

	return session.New(anchor, rule, session.Options{
		Logger:   g.logger.Named("session"),
		MaxSteps: g.cfg.History.MaxSteps,
		Rand:     rng,
	}), nil
}

// parseEdit parses "index=hex".
func parseEdit(s string) (int, colour.Color, error) {
	idx, hex, ok := strings.Cut(s, "=")
	if !ok {
		return 0, colour.Color{}, fmt.Errorf("invalid edit %q: expected index=hex", s)
	}
	slot, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || slot < 0 || slot >= harmony.Slots {
		return 0, colour.Color{}, fmt.Errorf("invalid edit %q: slot must be 0-%d", s, harmony.Slots-1)
	}
	c, ok := colour.ParseHex(hex)
	if !ok {
		return 0, colour.Color{}, fmt.Errorf("invalid edit %q: expected 6 hex digits", s)
	}
	return slot, c, nil
}

func joinRules() string {
	names := make([]string, 0, len(harmony.ValidRules()))
	for _, r := range harmony.ValidRules() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func joinSyncs() string {
	names := make([]string, 0, len(harmony.ValidSyncs()))
	for _, s := range harmony.ValidSyncs() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
