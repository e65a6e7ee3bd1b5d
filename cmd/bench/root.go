package bench

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Witchie/BinSerializer/cmd/util"
	"github.com/Witchie/BinSerializer/lib/common"
	"github.com/Witchie/BinSerializer/lib/primitives"
	"github.com/Witchie/BinSerializer/lib/serializer"
	"github.com/Witchie/BinSerializer/lib/types"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	conf *common.Config
	s    *serializer.Serializer

	// BenchCmd represents the bench command
	BenchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Performance testing tool for the type resolution core",
		RunE:    run,
		PreRunE: setup,
	}
)

func init() {
	key := "bench-types"
	BenchCmd.Flags().String(key, "Int,String,List[Int],List[List[Int]]", util.WrapString("Type ids to benchmark (comma separated)"))
	key = "threads"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "list-size"
	BenchCmd.Flags().Int(key, 100, util.WrapString("Number of elements written for list types"))
	key = "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. resolve,adapt)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	conf, s, err = util.Setup(cmd)
	return err
}

// result is a benchmark result together with the per operation latencies
type result struct {
	bench testing.BenchmarkResult
	timer gometrics.Timer
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for the type resolution core")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(conf.String())

	// Resolve the benchmarked types and prepare their payloads up front
	cases := make([]benchCase, 0, len(conf.Bench.TypeIds))
	for _, id := range conf.Bench.TypeIds {
		c, err := newBenchCase(id)
		if err != nil {
			return fmt.Errorf("failed to prepare %q: %w", id, err)
		}
		cases = append(cases, c)
	}

	fmt.Println("starting tests...")

	latencies := gometrics.NewRegistry()
	results := make(map[string]result)

	record := func(name string, op func() error) {
		if shouldSkip(name) {
			printResult(name, result{})
			return
		}
		timer := gometrics.GetOrRegisterTimer(name, latencies)
		r := testing.Benchmark(func(b *testing.B) {
			b.SetParallelism(conf.Bench.Threads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					start := time.Now()
					if err := op(); err != nil {
						b.Errorf("(%s) - %v", name, err)
						return
					}
					timer.UpdateSince(start)
				}
			})
		})
		results[name] = result{bench: r, timer: timer}
		printResult(name, results[name])
	}

	for _, c := range cases {
		record("resolve/"+c.id, func() error {
			_, err := s.TypeForId(c.id)
			return err
		})
		record("write/"+c.id, func() error {
			w, err := s.GetWriter(c.typ)
			if err != nil {
				return err
			}
			return w.Write(io.Discard, c.value)
		})
		record("read/"+c.id, func() error {
			r, err := s.GetReader(c.typ)
			if err != nil {
				return err
			}
			_, err = r.Read(bytes.NewReader(c.encoded))
			return err
		})
		record("skip/"+c.id, func() error {
			sk, err := s.GetSkipper(c.typ)
			if err != nil {
				return err
			}
			return sk.Skip(bytes.NewReader(c.encoded))
		})
	}

	// adapter: covariance shortcut and cached value shim
	level := types.New("BenchLevel", types.KindValue, types.WithUnderlying(primitives.Int), types.WithGoType(primitives.Int.GoType()))
	record("adapt/shortcut", func() error {
		_, err := s.GetReaderAs(primitives.String, primitives.Object)
		return err
	})
	record("adapt/shim", func() error {
		_, err := s.GetWriterAs(primitives.Int, level)
		return err
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Bench cases
// --------------------------------------------------------------------------

// benchCase is a resolved type with a sample value and its encoding
type benchCase struct {
	id      string
	typ     *types.Type
	value   any
	encoded []byte
}

func newBenchCase(id string) (benchCase, error) {
	t, err := s.TypeForId(id)
	if err != nil {
		return benchCase{}, err
	}
	value, err := sampleValue(t, conf.Bench.ListSize)
	if err != nil {
		return benchCase{}, err
	}
	w, err := s.GetWriter(t)
	if err != nil {
		return benchCase{}, err
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, value); err != nil {
		return benchCase{}, err
	}
	return benchCase{id: id, typ: t, value: value, encoded: buf.Bytes()}, nil
}

// sampleValue builds a value of the go representation of t. Lists are filled
// with size elements.
func sampleValue(t *types.Type, size int) (any, error) {
	goType := t.GoType()
	if goType == nil {
		return nil, fmt.Errorf("%s has no go representation", t)
	}

	if t.Definition() == primitives.List {
		list := reflect.MakeSlice(goType, 0, size)
		for i := 0; i < size; i++ {
			elem, err := sampleValue(t.Args()[0], size)
			if err != nil {
				return nil, err
			}
			list = reflect.Append(list, reflect.ValueOf(elem))
		}
		return list.Interface(), nil
	}

	v := reflect.New(goType).Elem()
	switch goType.Kind() {
	case reflect.Bool:
		v.SetBool(true)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		v.SetInt(42)
	case reflect.Float32, reflect.Float64:
		v.SetFloat(math.Pi)
	case reflect.String:
		v.SetString("the quick brown fox")
	default:
		return nil, fmt.Errorf("no sample value for %s (go type %s)", t, goType)
	}
	return v.Interface(), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range conf.Bench.Skip {
		if test == skip || strings.HasPrefix(test, skip+"/") {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, r result) {
	if r.bench.NsPerOp() == 0 {
		fmt.Printf("%-28sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	p50, p99 := r.timer.Percentile(0.5), r.timer.Percentile(0.99)
	fmt.Printf("%-28s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, time.Duration(p50), time.Duration(p99))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Test", "NsPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Samples", "Threads", "ListSize"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := results[name]
		nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1)
		row := []string{
			name,
			strconv.FormatInt(r.bench.NsPerOp(), 10),
			strconv.FormatFloat(1e9/nsPerOp, 'f', 0, 64),
			strconv.FormatFloat(r.timer.Percentile(0.5), 'f', 0, 64),
			strconv.FormatFloat(r.timer.Percentile(0.99), 'f', 0, 64),
			strconv.FormatInt(r.timer.Count(), 10),
			strconv.Itoa(conf.Bench.Threads),
			strconv.Itoa(conf.Bench.ListSize),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %v", err)
	}
	return file.Close()
}
