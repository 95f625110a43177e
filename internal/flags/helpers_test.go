package flags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExpandPath(t *testing.T) {
	home := HomeDir()
	os.Setenv("TODO_TEST_DIR", "/srv/todo")
	defer os.Unsetenv("TODO_TEST_DIR")

	tests := []struct{ in, want string }{
		{"/home/someuser/tmp", "/home/someuser/tmp"},
		{"~/tmp", filepath.Join(home, "tmp")},
		{"~thisOtherUser/b/", "~thisOtherUser/b"},
		{"$TODO_TEST_DIR/keystore", "/srv/todo/keystore"},
		{"/a/b/../c", "/a/c"},
	}
	for _, test := range tests {
		if got := ExpandPath(test.in); got != test.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestCheckExclusive(t *testing.T) {
	a := &cli.StringFlag{Name: "a"}
	b := &cli.StringFlag{Name: "b"}

	run := func(args ...string) error {
		var err error
		app := &cli.App{
			Flags: []cli.Flag{a, b},
			Action: func(ctx *cli.Context) error {
				err = CheckExclusive(ctx, a, b)
				return nil
			},
		}
		if rerr := app.Run(append([]string{"test"}, args...)); rerr != nil {
			t.Fatalf("app failed: %v", rerr)
		}
		return err
	}
	if err := run("--a", "x"); err != nil {
		t.Fatalf("single flag rejected: %v", err)
	}
	if err := run("--a", "x", "--b", "y"); err == nil {
		t.Fatalf("expected error for exclusive flags")
	}
}
