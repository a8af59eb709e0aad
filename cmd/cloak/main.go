package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/internal/wasmgen"
	"github.com/cloakffi/cloak/proxy"
	"github.com/cloakffi/cloak/registry"
	"github.com/cloakffi/cloak/wasmns"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		ifaceFile   = flag.String("iface", "", "Path to interface descriptor (JSON)")
		demo        = flag.Bool("demo", false, "Use the built-in point library instead of -wasm/-iface")
		funcName    = flag.String("func", "", "Function to call (optional)")
		argsStr     = flag.String("args", "", "Arguments (comma-separated)")
		list        = flag.Bool("list", false, "List declared functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if !*demo && (*wasmFile == "" || *ifaceFile == "") {
		fmt.Fprintln(os.Stderr, "Usage: cloak -wasm <file.wasm> -iface <iface.json> [-func name -args a,b]")
		fmt.Fprintln(os.Stderr, "       cloak -wasm <file.wasm> -iface <iface.json> -list")
		fmt.Fprintln(os.Stderr, "       cloak -wasm <file.wasm> -iface <iface.json> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       cloak -demo [-func name -args a,b | -list | -i]")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			proxy.SetLogger(l.Named("proxy"))
			registry.SetLogger(l.Named("registry"))
			wasmns.SetLogger(l.Named("wasmns"))
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, *ifaceFile, *demo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *ifaceFile, *demo, *funcName, *argsStr, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadNamespace builds the guest namespace from files or the built-in demo
// library. The returned closer shuts the wazero runtime down.
func loadNamespace(ctx context.Context, wasmFile, ifaceFile string, demo bool) (*wasmns.Module, func(), error) {
	var bin []byte
	var iface *wasmns.Interface
	var err error

	if demo {
		bin = wasmgen.PointModule()
		iface = demoInterface()
	} else {
		bin, err = os.ReadFile(wasmFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read wasm: %w", err)
		}
		data, err := os.ReadFile(ifaceFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read interface: %w", err)
		}
		iface, err = wasmns.ParseInterface(data)
		if err != nil {
			return nil, nil, err
		}
	}

	r := wazero.NewRuntime(ctx)
	ns, err := wasmns.Load(ctx, r, bin, iface)
	if err != nil {
		r.Close(ctx)
		return nil, nil, err
	}
	return ns, func() { r.Close(ctx) }, nil
}

func demoInterface() *wasmns.Interface {
	return &wasmns.Interface{
		Name:  "pointlib",
		Alloc: "alloc",
		Structs: []wasmns.StructDecl{
			{
				Name: "point_t",
				Fields: []wasmns.FieldDecl{
					{Name: "x", Type: "int", Offset: 0},
					{Name: "y", Type: "int", Offset: 4},
				},
			},
		},
		Funcs: []wasmns.FuncDecl{
			{Name: "make_point", Params: []string{"int", "int"}, Result: "point_t*"},
			{Name: "del_point", Params: []string{"point_t*"}},
			{Name: "point_x", Params: []string{"point_t*"}, Result: "int"},
			{Name: "point_y", Params: []string{"point_t*"}, Result: "int"},
			{Name: "point_setx", Params: []string{"point_t*", "int"}, Result: "point_t*"},
			{Name: "point_sety", Params: []string{"point_t*", "int"}, Result: "point_t*"},
			{Name: "point_dist", Params: []string{"point_t*", "point_t*"}, Result: "double"},
			{Name: "set_ptr_succ", Params: []string{"int", "int*"}, Result: "int"},
		},
	}
}

func run(wasmFile, ifaceFile string, demo bool, funcName, argsStr string, listOnly bool) error {
	ctx := context.Background()

	ns, closer, err := loadNamespace(ctx, wasmFile, ifaceFile, demo)
	if err != nil {
		return err
	}
	defer closer()

	if listOnly || funcName == "" && !demo {
		fmt.Println("Declared functions:")
		for _, fn := range ns.Functions() {
			fmt.Printf("  %s\n", signature(fn))
		}
		return nil
	}

	reg := proxy.NewRegistry()

	if funcName == "" {
		return runDemoScript(ctx, ns, reg)
	}

	fn, ok := ns.Function(funcName)
	if !ok {
		return fmt.Errorf("function %q not declared", funcName)
	}
	args, err := parseArgs(argsStr, fn.Params())
	if err != nil {
		return err
	}

	m, err := proxy.Func(ns, reg, funcName)
	if err != nil {
		return err
	}
	res, err := m.Invoke(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Println(formatValue(res))
	return nil
}

// runDemoScript walks the point library through the proxy layer, showing
// field access, method dispatch, and the distance call.
func runDemoScript(ctx context.Context, ns cloak.Namespace, reg *registry.Registry) error {
	v, err := proxy.Construct(ctx, ns, reg, "make_point", 0, 0)
	if err != nil {
		return err
	}
	origin := v.(*proxy.Proxy)

	v, err = proxy.Construct(ctx, ns, reg, "make_point", 0, 0)
	if err != nil {
		return err
	}
	p := v.(*proxy.Proxy)

	setx, err := p.Method("setx")
	if err != nil {
		return err
	}
	if _, err := setx.Invoke(ctx, 3); err != nil {
		return err
	}
	if err := p.Set("y", 4); err != nil {
		return err
	}

	x, err := p.Get("x")
	if err != nil {
		return err
	}
	y, err := p.Get("y")
	if err != nil {
		return err
	}
	fmt.Printf("p = (%v, %v)\n", x, y)

	dist, err := p.Method("dist")
	if err != nil {
		return err
	}
	d, err := dist.Invoke(ctx, origin)
	if err != nil {
		return err
	}
	fmt.Printf("dist(p, origin) = %v\n", d)
	return nil
}

func signature(fn cloak.Function) string {
	params := make([]string, len(fn.Params()))
	for i, p := range fn.Params() {
		params[i] = p.Name()
	}
	sig := fn.Name() + "(" + strings.Join(params, ", ") + ")"
	if fn.Result() != nil && fn.Result().Kind() != cloak.KindVoid {
		sig += " -> " + fn.Result().Name()
	}
	return sig
}

// parseArgs converts comma-separated CLI arguments per the declared
// parameter types. Pointer arguments cannot be written on a command line.
func parseArgs(argsStr string, params []cloak.Type) ([]any, error) {
	var parts []string
	if argsStr != "" {
		parts = strings.Split(argsStr, ",")
	}
	if len(parts) != len(params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(params), len(parts))
	}

	args := make([]any, len(parts))
	for i, s := range parts {
		v, err := parseArg(strings.TrimSpace(s), params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(s string, t cloak.Type) (any, error) {
	switch t.Kind() {
	case cloak.KindPointer, cloak.KindStruct, cloak.KindUnion:
		return nil, fmt.Errorf("cannot pass %s from the command line", t.Name())
	}
	switch t.Name() {
	case "int":
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case "float":
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return float32(v), nil
	case "double":
		return strconv.ParseFloat(s, 64)
	case "unsigned long long":
		return strconv.ParseUint(s, 10, 64)
	}
	return nil, fmt.Errorf("unsupported parameter type %s", t.Name())
}

// formatValue renders a call result, expanding proxies to their fields.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "void"
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *proxy.Proxy:
		return formatProxy(val)
	case cloak.Handle:
		if val.IsNil() {
			return "NULL"
		}
		return fmt.Sprintf("%s@%d", val.Type().Name(), val.ID())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatProxy(p *proxy.Proxy) string {
	st := p.Handle().Type()
	if st.Kind() == cloak.KindPointer && st.Elem() != nil {
		st = st.Elem()
	}
	var fields []string
	for _, f := range st.Fields() {
		v, err := p.Get(f.Name)
		if err != nil {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s: %v", f.Name, v))
	}
	return fmt.Sprintf("%s{%s}", st.Name(), strings.Join(fields, ", "))
}
