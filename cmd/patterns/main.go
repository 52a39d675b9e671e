package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Udzu/pudzu-packages/patterns"
)

type namedPattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

var (
	defsPath  string
	wordsPath string
	fsmPath   string
)

func buildOptions() ([]patterns.BuildOption, error) {
	var opts []patterns.BuildOption
	if defsPath != "" {
		data, err := os.ReadFile(defsPath)
		if err != nil {
			return nil, err
		}
		var defs []namedPattern
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", defsPath, err)
		}
		for _, d := range defs {
			opts = append(opts, patterns.WithDefinition(d.Name, d.Pattern))
		}
	}
	if wordsPath != "" {
		data, err := os.ReadFile(wordsPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, patterns.WithWordList(strings.Fields(string(data))))
	}
	if fsmPath != "" {
		f, err := os.Open(fsmPath)
		if err != nil {
			return nil, err
		}
		a, err := patterns.ParseFSM(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fsmPath, err)
		}
		opts = append(opts, patterns.WithFSM(a))
	}
	return opts, nil
}

func buildAutomaton(pattern string) (*patterns.Automaton, error) {
	opts, err := buildOptions()
	if err != nil {
		return nil, err
	}
	return patterns.Build(pattern, opts...)
}

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match PATTERN STRING...",
		Short: "Match strings against a pattern, showing capture groups",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			for _, s := range args[1:] {
				ok, caps := patterns.RunSubmatch(a, s)
				fmt.Printf("%s: %v", s, ok)
				names := make([]string, 0, len(caps))
				for name := range caps {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf(" %s=%q", name, caps[name])
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newExamplesCmd() *cobra.Command {
	var (
		count    int
		minLen   int
		maxLen   int
		shortest bool
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "examples PATTERN",
		Short: "Generate strings the pattern accepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			if shortest {
				s, err := patterns.ShortestExample(a)
				if err != nil {
					return err
				}
				fmt.Println(s)
				return nil
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rnd := rand.New(rand.NewSource(seed))
			if minLen > 0 || maxLen >= 0 {
				seen := map[string]bool{}
				for attempt := 0; attempt < 10*count+10 && len(seen) < count; attempt++ {
					s, err := patterns.GenerateBounded(a, minLen, maxLen, rnd)
					if err != nil {
						return err
					}
					if !seen[s] {
						seen[s] = true
						fmt.Println(s)
					}
				}
				return nil
			}
			out, err := patterns.GenerateExamples(a, count, rnd)
			if err != nil {
				return err
			}
			for _, s := range out {
				fmt.Println(s)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of examples")
	cmd.Flags().IntVar(&minLen, "min", 0, "minimum example length")
	cmd.Flags().IntVar(&maxLen, "max", -1, "maximum example length (-1 for unbounded)")
	cmd.Flags().BoolVar(&shortest, "shortest", false, "print one shortest accepted string")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	return cmd
}

func newBoundsCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "bounds PATTERN",
		Short: "Print lexicographic lower and upper bounds on the language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			lower, upper, err := patterns.Bounds(a, depth, 0)
			if err != nil {
				return err
			}
			fmt.Printf("lower: %q\nupper: %q\n", lower, upper)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", patterns.DefaultBoundsDepth, "walk depth before truncating")
	return cmd
}

func newRegexCmd() *cobra.Command {
	var noFallback bool
	cmd := &cobra.Command{
		Use:   "regex PATTERN",
		Short: "Reconstruct an equivalent plain regex from the pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			var opts []patterns.RegexpOption
			if noFallback {
				opts = append(opts, patterns.WithoutExactFallback())
			}
			r, err := patterns.ToRegexp(a, opts...)
			if err != nil {
				return err
			}
			fmt.Println(r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "simplify with heuristics only")
	return cmd
}

func newTransformCmd(use, short string, transform func(*patterns.Automaton) (*patterns.Automaton, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PATTERN",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			out, err := transform(a)
			if err != nil {
				return err
			}
			return patterns.WriteFSM(os.Stdout, out)
		},
	}
}

func newDotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot PATTERN",
		Short: "Print the automaton graph in Graphviz DOT form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAutomaton(args[0])
			if err != nil {
				return err
			}
			fmt.Print(patterns.Dot(a))
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "patterns",
		Short:         "Build, match and transform wordplay pattern automata",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&defsPath, "defs", "", "YAML file of named pattern definitions")
	root.PersistentFlags().StringVar(&wordsPath, "words", "", "word list file backing \\w")
	root.PersistentFlags().StringVar(&fsmPath, "fsm", "", "FSM transition file backing \\f")

	root.AddCommand(
		newMatchCmd(),
		newExamplesCmd(),
		newBoundsCmd(),
		newRegexCmd(),
		newTransformCmd("minimize", "Minimize the pattern automaton and print it as FSM text", func(a *patterns.Automaton) (*patterns.Automaton, error) {
			return patterns.Minimize(a, patterns.DefaultWorkLimit)
		}),
		newTransformCmd("determinize", "Determinize the pattern automaton and print it as FSM text", func(a *patterns.Automaton) (*patterns.Automaton, error) {
			return patterns.Determinize(a, patterns.DefaultWorkLimit)
		}),
		newDotCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
