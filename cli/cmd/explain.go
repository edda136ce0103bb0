package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/stata"
)

// ExplainCommand describes a Stata return code.
func ExplainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Explain a Stata r() return code",
		ArgsUsage: "<code>",
		Flags:     SharedFlags(),
		Action:    explainAction,
	}
}

// explanation is the renderable form of a code lookup.
type explanation struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	DocRef      string `json:"doc_ref"`
	ExitCode    int    `json:"exit_code"`
}

func explainAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("explain takes exactly one return code", stata.ExitEnvironmentError)
	}

	raw := strings.TrimSpace(c.Args().First())
	// Accept both "r(601)" and "601".
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "r("), ")")
	code, err := strconv.Atoi(raw)
	if err != nil || code < 0 {
		return cli.Exit(fmt.Sprintf("invalid return code %q", c.Args().First()), stata.ExitEnvironmentError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(explainPayload(code))
}

func explainPayload(code int) explanation {
	desc := stata.Describe(code)
	return explanation{
		Code:        desc.Code,
		Name:        desc.Name,
		Category:    string(desc.Category),
		Description: desc.Description,
		DocRef:      desc.DocRef,
		ExitCode:    stata.ExitClassForCode(code),
	}
}
