package processor

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(name string) (*sqlscript.Script, error) {
	source, found := m[name]
	if !found {
		return nil, nil
	}

	return &sqlscript.Script{
		Name:       name,
		Terminator: sqlscript.DEFAULT_TERMINATOR,
		Content:    []byte(source),
	}, nil
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// every pooled connection to a plain ":memory:" DSN opens its own
	// empty database; a named shared-cache one is seen by all of them
	database, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
	assert.Nil(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

// recordingHandler recognizes one directive name and records which of
// its methods ran.
type recordingHandler struct {
	name      string
	initCalls int
}

func (h *recordingHandler) InitHandler(ctx *Context, config any) error {
	return nil
}

func (h *recordingHandler) InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error) {
	h.initCalls++
	if d.Name != h.name {
		return nil, nil
	}

	return &runner.Initialization{}, nil
}

func (h *recordingHandler) SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error) {
	if d.Name != h.name {
		return nil, nil
	}

	return nil, runner.ErrNotImplemented
}

func (h *recordingHandler) TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error) {
	return false, nil
}

func directive(name string, args ...string) *parser.Directive {
	return &parser.Directive{Name: name, Args: args, File: "test.sql", Line: 1}
}

func TestCompositeInitDirectiveShortCircuit(t *testing.T) {
	first := &recordingHandler{name: "A"}
	second := &recordingHandler{name: "B"}
	third := &recordingHandler{name: "B"}

	composite := NewComposite(NewContext(nil, nil), first, second, third)
	assert.Nil(t, composite.InitProcessor(nil, nil))

	init, err := composite.InitDirective(directive("B"))
	assert.Nil(t, err)
	assert.NotNil(t, init)

	assert.Equal(t, 1, first.initCalls)
	assert.Equal(t, 1, second.initCalls)
	assert.Equal(t, 0, third.initCalls)
}

func TestCompositeInitDirectiveExhausted(t *testing.T) {
	composite := NewComposite(NewContext(nil, nil), &recordingHandler{name: "A"})
	assert.Nil(t, composite.InitProcessor(nil, nil))

	_, err := composite.InitDirective(directive("NoSuch", "x"))

	uerr, ok := err.(*runner.UnrecognizedDirectiveError)
	assert.True(t, ok)
	assert.Equal(t, "NoSuch", uerr.Directive.Name)
}

func TestCompositeSetupDirectiveSkipsNotImplemented(t *testing.T) {
	properties := MapProperties{"flag": "true"}
	ifHandler := &IfHandler{Properties: properties}

	composite := NewComposite(NewContext(nil, nil), &recordingHandler{name: "If"}, ifHandler)
	assert.Nil(t, composite.InitProcessor(nil, nil))

	init, err := composite.SetupDirective(directive("If", "flag", "WHERE a=1"), nil)
	assert.Nil(t, err)
	assert.Equal(t, "WHERE a=1", init.Text)
}

func TestCompositeSetupDirectiveExhausted(t *testing.T) {
	composite := NewComposite(NewContext(nil, nil), &recordingHandler{name: "A"})
	assert.Nil(t, composite.InitProcessor(nil, nil))

	_, err := composite.SetupDirective(directive("A"), nil)

	ierr, ok := err.(*runner.InvalidDirectiveError)
	assert.True(t, ok)
	assert.Equal(t, "no setup handler", ierr.Message)
}

func TestCompositeGenericExecution(t *testing.T) {
	database := openTestDB(t)
	composite := NewComposite(NewContext(database, nil))

	r := runner.NewRunner(mapResolver{
		"setup": "CREATE TABLE t (a INTEGER); INSERT INTO t VALUES (1), (2);",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("setup", composite))

	var count int
	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestCompositeConfigTimeoutAndHandlerConfig(t *testing.T) {
	properties := MapProperties{"flag": "1"}
	ifHandler := &IfHandler{}
	composite := NewComposite(NewContext(nil, nil), ifHandler)

	config := &Config{
		Timeout: 5 * time.Second,
		Handlers: map[string]any{
			"If": &IfConfig{Dynamic: true, Properties: properties},
		},
	}
	assert.Nil(t, composite.InitProcessor(config, nil))

	assert.Equal(t, 5*time.Second, composite.Context().Timeout)

	init, err := composite.InitDirective(directive("If", "flag", "x"))
	assert.Nil(t, err)
	assert.True(t, init.Actions.Has(runner.ACTION_DEFER_SETUP))
}

func TestIfHandlerStatic(t *testing.T) {
	database := openTestDB(t)
	_, err := database.Exec("CREATE TABLE T (a INTEGER); INSERT INTO T VALUES (1)")
	assert.Nil(t, err)

	calls := make(map[string]string)
	callbacks := NewCallbackHandler()
	callbacks.Register("record", func(ctx *Context, text string, args []string) error {
		calls[args[0]] = text
		return nil
	})

	ifHandler := &IfHandler{Properties: MapProperties{"flag": "true"}}
	composite := NewComposite(NewContext(database, nil), ifHandler, callbacks)

	r := runner.NewRunner(mapResolver{
		"cond": "SELECT * FROM T -- #If: flag, \"WHERE a=1\"\n-- #Callback: record, seen\n;",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("cond", composite))
	assert.Equal(t, "SELECT * FROM T WHERE a=1 ", calls["seen"])
}

func TestIfHandlerElseBranch(t *testing.T) {
	h := &IfHandler{Properties: MapProperties{}}
	assert.Nil(t, h.InitHandler(nil, nil))

	init, err := h.InitDirective(nil, directive("If", "missing", "yes", "no"))
	assert.Nil(t, err)
	assert.Equal(t, "no", init.Text)
	assert.True(t, init.Actions.Has(runner.ACTION_REPLACE_TEXT))
	assert.True(t, init.Actions.Has(runner.ACTION_NO_STORE))
}

func TestIfHandlerDynamic(t *testing.T) {
	database := openTestDB(t)
	_, err := database.Exec("CREATE TABLE T (a INTEGER); INSERT INTO T VALUES (1), (2)")
	assert.Nil(t, err)

	properties := MapProperties{"flag": "true"}

	var texts []string
	callbacks := NewCallbackHandler()
	callbacks.Register("record", func(ctx *Context, text string, args []string) error {
		texts = append(texts, text)
		return nil
	})

	ifHandler := &IfHandler{Properties: properties, dynamic: true}
	composite := NewComposite(NewContext(database, nil), ifHandler, callbacks)

	r := runner.NewRunner(mapResolver{
		"cond": "SELECT * FROM T -- #If: flag, \"WHERE a=1\"\n-- #Callback: record\n;",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("cond", composite))

	properties["flag"] = ""
	assert.Nil(t, r.ExecuteScript("cond", composite))

	assert.Equal(t, 2, len(texts))
	assert.Equal(t, "SELECT * FROM T WHERE a=1 ", texts[0])
	assert.Equal(t, "SELECT * FROM T  ", texts[1])
}

func TestIfHandlerRejectsBadArgs(t *testing.T) {
	h := &IfHandler{Properties: MapProperties{}}

	for _, args := range [][]string{
		{},
		{"flag"},
		{"flag", "a", "b", "c"},
	} {
		_, err := h.InitDirective(nil, directive("If", args...))
		_, ok := err.(*runner.InvalidDirectiveError)
		assert.True(t, ok)
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(""))
	assert.False(t, Truthy("false"))
	assert.False(t, Truthy("0"))
	assert.True(t, Truthy("true"))
	assert.True(t, Truthy("1"))
	assert.True(t, Truthy("anything"))
}

func TestCallbackHandlerClaims(t *testing.T) {
	database := openTestDB(t)

	var got string
	var gotArgs []string
	callbacks := NewCallbackHandler()
	callbacks.Register("notify", func(ctx *Context, text string, args []string) error {
		got = text
		gotArgs = args
		return nil
	})

	composite := NewComposite(NewContext(database, nil), callbacks)

	// no table exists, so generic execution of the text would fail
	r := runner.NewRunner(mapResolver{
		"cb": "SELECT * FROM missing -- #Callback: notify, a, b\n;",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("cb", composite))
	assert.Equal(t, "SELECT * FROM missing ", got)
	assert.Equal(t, []string{"a", "b"}, gotArgs)
}

func TestCallbackHandlerUnknownName(t *testing.T) {
	callbacks := NewCallbackHandler()

	_, err := callbacks.InitDirective(nil, directive("Callback", "missing"))
	_, ok := err.(*runner.InvalidDirectiveError)
	assert.True(t, ok)
}

func TestLoadTableHandler(t *testing.T) {
	database := openTestDB(t)
	_, err := database.Exec("CREATE TABLE src (a INTEGER, b TEXT)")
	assert.Nil(t, err)
	_, err = database.Exec("INSERT INTO src VALUES (1, 'x'), (2, 'y')")
	assert.Nil(t, err)

	composite := NewComposite(NewContext(database, nil), &LoadTableHandler{})

	r := runner.NewRunner(mapResolver{
		"load": "/* ** #LoadTable: dst, false, \"a, Int32\", \"b, String, 16\" */\nSELECT a, b FROM src ORDER BY a;",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("load", composite))

	var count int
	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM dst").Scan(&count))
	assert.Equal(t, 2, count)

	// truncate variant loads on top of the existing table
	r2 := runner.NewRunner(mapResolver{
		"reload": "/* ** #LoadTable: dst, true, \"a, Int32\", \"b, String, 16\" */\nSELECT a, b FROM src WHERE a = 1;",
	}, nil, nil)

	assert.Nil(t, r2.ExecuteScript("reload", composite))

	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM dst").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoadTableHandlerRejectsBadDirective(t *testing.T) {
	h := &LoadTableHandler{}

	for _, args := range [][]string{
		{},
		{"tbl", "true"},
		{"tbl", "maybe", "a, Int32"},
		{"tbl", "true", "a, Unknown"},
	} {
		_, err := h.InitDirective(nil, directive("LoadTable", args...))
		_, ok := err.(*runner.InvalidDirectiveError)
		assert.True(t, ok)
	}
}

func TestTimeoutHandler(t *testing.T) {
	database := openTestDB(t)
	composite := NewComposite(NewContext(database, nil), &TimeoutHandler{})

	r := runner.NewRunner(mapResolver{
		"timed": "CREATE TABLE t (a INTEGER) -- #Timeout: 2\n;",
	}, nil, nil)

	assert.Nil(t, r.ExecuteScript("timed", composite))

	var count int
	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestTimeoutHandlerRejectsBadSeconds(t *testing.T) {
	h := &TimeoutHandler{}

	for _, args := range [][]string{
		{},
		{"x"},
		{"0"},
		{"-1"},
		{"1", "2"},
	} {
		_, err := h.InitDirective(nil, directive("Timeout", args...))
		_, ok := err.(*runner.InvalidDirectiveError)
		assert.True(t, ok)
	}
}
