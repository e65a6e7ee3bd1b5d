package typeid

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Witchie/BinSerializer/cmd/util"
	"github.com/Witchie/BinSerializer/lib/serializer"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/spf13/cobra"
)

var (
	s         *serializer.Serializer
	adaptMode string

	// TypeIdCommands represents the typeid command group
	TypeIdCommands = &cobra.Command{
		Use:               "typeid",
		Short:             "Resolve, list and adapt type ids",
		PersistentPreRunE: setupSerializer,
	}

	// resolveCmd represents the resolve command
	resolveCmd = &cobra.Command{
		Use:   "resolve [id...]",
		Short: "Resolve type ids and print their canonical form",
		Long: util.WrapString(`Resolve each type id to its runtime type, then encode the type again.
Prints the canonical id, the kind, the go representation and which routines are available.`),
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}

	// adaptCmd represents the adapt command
	adaptCmd = &cobra.Command{
		Use:   "adapt [from] [to]",
		Short: "Check whether a routine of one type can serve another",
		Long: util.WrapString(`Resolve the routine of the type "from" and adapt it to the static type "to".
Prints whether the routine is reused as is or wrapped in a shim.`),
		Args: cobra.ExactArgs(2),
		RunE: runAdapt,
	}

	// listCmd represents the list command
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List all registered type ids",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

func init() {
	TypeIdCommands.AddCommand(resolveCmd)
	TypeIdCommands.AddCommand(adaptCmd)
	TypeIdCommands.AddCommand(listCmd)

	adaptCmd.Flags().StringVar(&adaptMode, "mode", "read", util.WrapString("Which routine to adapt (read, write, skip)"))
}

// setupSerializer builds the serializer from the configuration
func setupSerializer(cmd *cobra.Command, _ []string) error {
	var err error
	_, s, err = util.Setup(cmd)
	return err
}

// runResolve handles the resolve command
func runResolve(_ *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCANONICAL\tKIND\tGO TYPE\tROUTINES")

	for _, id := range args {
		t, err := s.TypeForId(id)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", id, err)
		}
		canonical, err := s.TypeIdFor(t)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", t, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, canonical, t.Kind(), goTypeName(t), routines(t))
	}
	return w.Flush()
}

// runAdapt handles the adapt command
func runAdapt(_ *cobra.Command, args []string) error {
	from, err := s.TypeForId(args[0])
	if err != nil {
		return err
	}
	to, err := s.TypeForId(args[1])
	if err != nil {
		return err
	}

	var reused bool
	switch adaptMode {
	case "read":
		r, err := s.GetReader(from)
		if err != nil {
			return err
		}
		adapted, err := s.GetReaderAs(from, to)
		if err != nil {
			return err
		}
		reused = adapted == r
	case "write":
		w, err := s.GetWriter(from)
		if err != nil {
			return err
		}
		adapted, err := s.GetWriterAs(from, to)
		if err != nil {
			return err
		}
		reused = adapted == w
	case "skip":
		sk, err := s.GetSkipper(from)
		if err != nil {
			return err
		}
		adapted, err := s.GetSkipperAs(from, to)
		if err != nil {
			return err
		}
		reused = adapted == sk
	default:
		return fmt.Errorf("invalid mode %s (read, write, skip)", adaptMode)
	}

	if reused {
		fmt.Printf("%s -> %s (%s): routine reused\n", from, to, adaptMode)
	} else {
		fmt.Printf("%s -> %s (%s): shim\n", from, to, adaptMode)
	}
	return nil
}

// runList handles the list command
func runList(_ *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tGENERIC\tVERSION\tMIN VERSION")
	for _, d := range s.Registry().Descriptors() {
		generic := "-"
		if d.IsGeneric() {
			params := make([]string, len(d.Type.Params()))
			for i, p := range d.Type.Params() {
				params[i] = p.Name()
			}
			generic = strings.Join(params, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", d.Id, d.Type.Kind(), generic, d.Version, d.MinSupportedVersion)
	}
	return w.Flush()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func goTypeName(t *types.Type) string {
	if t.GoType() == nil {
		return "-"
	}
	return t.GoType().String()
}

// routines lists the routines available for t
func routines(t *types.Type) string {
	var available []string
	if _, err := s.GetWriter(t); err == nil {
		available = append(available, "write")
	}
	if _, err := s.GetReader(t); err == nil {
		available = append(available, "read")
	}
	if _, err := s.GetSkipper(t); err == nil {
		available = append(available, "skip")
	}
	if len(available) == 0 {
		return "-"
	}
	return strings.Join(available, ",")
}
