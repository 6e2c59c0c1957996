// trellis-repl is an interactive demo shell for the trellis library.
// It operates on a single tree of integers and exposes the node lifecycle
// (detach, join, free) alongside the usual tree operations.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phroun/trellis"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	errColor    = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trellis-repl",
		Short:         "Interactive demo shell for the trellis ordered tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runREPL()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type repl struct {
	tree *trellis.Tree[int]

	// detached keeps handles to nodes the user detached or freed, keyed
	// by value, so they can be joined back.
	detached map[int]*trellis.Node[int]
}

func runREPL() error {
	fmt.Println("Trellis REPL - ordered tree with detachable node handles")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	r := &repl{
		tree:     trellis.New[int](),
		detached: make(map[int]*trellis.Node[int]),
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		promptColor.Print("trellis> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			r.tree.Cleanup()
			fmt.Println("Goodbye!")
			return nil
		}
		if err := r.dispatch(input); err != nil {
			errColor.Printf("error: %v\n", err)
		}
	}
}

func (r *repl) dispatch(input string) error {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "insert":
		return r.insert(args)
	case "remove":
		return r.remove(args)
	case "values":
		fmt.Println(r.tree.Values())
	case "tree":
		fmt.Print(r.tree.String())
	case "detach":
		return r.detach(args)
	case "join":
		return r.join(args)
	case "free":
		return r.free(args)
	case "set":
		return r.set(args)
	case "find":
		return r.find(args)
	case "traverse":
		return r.traverse(args)
	case "stats":
		s := r.tree.Stats()
		fmt.Printf("size=%d detached=%d height=%d stale=%v\n", s.Size, s.Detached, s.ShapeHeight, s.ShapeStale)
	case "cleanup":
		r.tree.Cleanup()
		r.detached = make(map[int]*trellis.Node[int])
		okColor.Println("released all detached nodes")
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

func (r *repl) insert(args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	for _, v := range values {
		if r.tree.Insert(v) {
			okColor.Printf("inserted %d at index %d\n", v, r.tree.IndexOf(v))
		} else {
			fmt.Printf("%d already present\n", v)
		}
	}
	return nil
}

func (r *repl) remove(args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	for _, v := range values {
		if r.tree.Remove(v) {
			okColor.Printf("removed %d\n", v)
		} else {
			fmt.Printf("%d not found\n", v)
		}
	}
	return nil
}

func (r *repl) detach(args []string) error {
	n, err := r.lookup(args)
	if err != nil {
		return err
	}
	n.Detach()
	r.detached[n.Value()] = n
	okColor.Printf("detached %d (handle kept)\n", n.Value())
	return nil
}

func (r *repl) join(args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	for _, v := range values {
		n, ok := r.detached[v]
		if !ok {
			return fmt.Errorf("no detached handle for %d", v)
		}
		if err := n.Join(); err != nil {
			return err
		}
		if n.IsDetached() {
			fmt.Printf("%d lost to an existing duplicate, still detached\n", v)
			continue
		}
		delete(r.detached, v)
		okColor.Printf("joined %d at index %d\n", v, n.OrderIndex())
	}
	return nil
}

func (r *repl) free(args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	for _, v := range values {
		if n, ok := r.detached[v]; ok {
			n.Free()
			delete(r.detached, v)
			okColor.Printf("freed detached handle %d\n", v)
			continue
		}
		n, err := r.lookup([]string{strconv.Itoa(v)})
		if err != nil {
			return err
		}
		n.Free()
		okColor.Printf("freed %d\n", v)
	}
	return nil
}

func (r *repl) set(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <value> <new-value>")
	}
	n, err := r.lookup(args[:1])
	if err != nil {
		return err
	}
	newValue, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("not an integer: %q", args[1])
	}
	n.SetValue(newValue)
	if n.IsDetached() {
		r.detached[n.Value()] = n
		fmt.Printf("%d duplicates an existing value; node detached\n", newValue)
		return nil
	}
	okColor.Printf("value now %d at index %d\n", n.Value(), n.OrderIndex())
	return nil
}

func (r *repl) find(args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	for _, v := range values {
		if i := r.tree.IndexOf(v); i >= 0 {
			fmt.Printf("%d at index %d\n", v, i)
		} else {
			fmt.Printf("%d not found\n", v)
		}
	}
	return nil
}

func (r *repl) traverse(args []string) error {
	options := trellis.TraversalOptions{}
	for _, arg := range args {
		switch arg {
		case "in":
			options.Order = trellis.OrderIn
		case "pre":
			options.Order = trellis.OrderPre
		case "post":
			options.Order = trellis.OrderPost
		case "left":
			options.Direction = trellis.DirectionLeft
		case "right":
			options.Direction = trellis.DirectionRight
		default:
			return fmt.Errorf("unknown traversal option %q", arg)
		}
	}
	var values []int
	err := r.tree.Traverse(func(n *trellis.Node[int]) {
		values = append(values, n.Value())
	}, options)
	if err != nil {
		return err
	}
	fmt.Println(values)
	return nil
}

func (r *repl) lookup(args []string) (*trellis.Node[int], error) {
	values, err := parseInts(args)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("expected exactly one value")
	}
	i := r.tree.IndexOf(values[0])
	if i < 0 {
		return nil, fmt.Errorf("%d not in tree", values[0])
	}
	return r.tree.At(i), nil
}

func parseInts(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expected at least one integer")
	}
	values := make([]int, len(args))
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", arg)
		}
		values[i] = v
	}
	return values, nil
}

func printHelp() {
	fmt.Println(`Commands:
  insert <n>...        insert values
  remove <n>...        remove values (frees their nodes)
  detach <n>           detach the node holding n, keeping its handle
  join <n>...          rejoin detached handles
  free <n>...          free a node (live or detached)
  set <n> <m>          change a node's value from n to m
  find <n>...          binary-search for values
  values               print the live values in order
  tree                 print the derived shape
  traverse [in|pre|post] [left|right]
  stats                size, detached count, shape height, staleness
  cleanup              free every detached node
  quit                 exit`)
}
