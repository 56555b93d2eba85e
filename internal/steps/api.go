package steps

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cucumber/godog"

	"bddkit/internal/vars"
	"bddkit/internal/world"
)

func registerAPISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)"$`, sendRequest)
	sc.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)" with body:$`, sendRequestWithBody)
	sc.Step(`^I set header "([^"]*)" to "([^"]*)"$`, setHeader)
	sc.Step(`^the response status should be (\d+)$`, responseStatus)
	sc.Step(`^the response path "([^"]*)" should equal "([^"]*)"$`, responsePathEquals)
	sc.Step(`^the response path "([^"]*)" should contain "([^"]*)"$`, responsePathContains)
	sc.Step(`^the response path "([^"]*)" should exist$`, responsePathExists)
	sc.Step(`^I save the response path "([^"]*)" as "([^"]*)"$`, saveResponsePath)
	sc.Step(`^I save the value "([^"]*)" as "([^"]*)"$`, saveValue)
}

func sendRequest(ctx context.Context, method, path string) error {
	fx, err := fixtures(ctx)
	if err != nil {
		return err
	}
	_, err = fx.API.SendJSON(ctx, fx.World, method, expand(fx, path), nil, nil)
	return err
}

func sendRequestWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	fx, err := fixtures(ctx)
	if err != nil {
		return err
	}
	_, err = fx.API.SendJSON(ctx, fx.World, method, expand(fx, path), expand(fx, body.Content), nil)
	return err
}

func setHeader(ctx context.Context, name, value string) error {
	fx, err := fixtures(ctx)
	if err != nil {
		return err
	}
	fx.World.Headers[name] = expand(fx, value)
	return nil
}

func lastResponse(ctx context.Context) (*world.Response, *world.World, error) {
	fx, err := fixtures(ctx)
	if err != nil {
		return nil, nil, err
	}
	if fx.World.Last == nil {
		return nil, nil, ErrNoResponse
	}
	return fx.World.Last, fx.World, nil
}

func responseStatus(ctx context.Context, want int) error {
	resp, _, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	if resp.Status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, resp.Status, truncate(resp.Text, 300))
	}
	return nil
}

func selectFromResponse(ctx context.Context, path string) (any, *world.World, error) {
	resp, w, err := lastResponse(ctx)
	if err != nil {
		return nil, nil, err
	}
	path = vars.Interpolate(path, w.Vars)
	v, err := vars.SelectPath(resp.JSON, path)
	if err != nil {
		return nil, nil, err
	}
	return v, w, nil
}

func responsePathEquals(ctx context.Context, path, expected string) error {
	actual, w, err := selectFromResponse(ctx, path)
	if err != nil {
		return err
	}
	want := vars.ParseExpected(expected, w.Vars)
	if valuesEqual(actual, want, vars.Interpolate(expected, w.Vars)) {
		return nil
	}
	return fmt.Errorf("expected %q to equal %#v, got %#v", path, want, actual)
}

// valuesEqual compares a JSON value with a parsed expectation. A string in
// the response is compared with the raw expected text so "42" in the body
// still matches an expectation written as 42.
func valuesEqual(actual, want any, raw string) bool {
	if s, ok := actual.(string); ok {
		return s == raw
	}
	return reflect.DeepEqual(actual, want)
}

func responsePathContains(ctx context.Context, path, fragment string) error {
	actual, w, err := selectFromResponse(ctx, path)
	if err != nil {
		return err
	}
	fragment = vars.Interpolate(fragment, w.Vars)
	switch v := actual.(type) {
	case string:
		if strings.Contains(v, fragment) {
			return nil
		}
	case []any:
		want := vars.ParseExpected(fragment, w.Vars)
		for _, item := range v {
			if valuesEqual(item, want, fragment) {
				return nil
			}
		}
	}
	return fmt.Errorf("expected %q to contain %q, got %#v", path, fragment, actual)
}

func responsePathExists(ctx context.Context, path string) error {
	actual, _, err := selectFromResponse(ctx, path)
	if err != nil {
		return err
	}
	if actual == nil {
		return fmt.Errorf("expected %q to be present in the response", path)
	}
	return nil
}

// saveResponsePath stores the value at path and offers it to the cleanup
// registrar. The sibling "name" field, when present, is passed as metadata.
func saveResponsePath(ctx context.Context, path, name string) error {
	fx, err := fixtures(ctx)
	if err != nil {
		return err
	}
	actual, w, err := selectFromResponse(ctx, path)
	if err != nil {
		return err
	}
	if actual == nil {
		return fmt.Errorf("response path %q is absent", path)
	}

	value := stringify(actual)
	w.Set(name, value)
	fx.Cleanup.RegisterFromVar(w, name, value, siblingName(w.Last.JSON, vars.Interpolate(path, w.Vars)))
	return nil
}

func saveValue(ctx context.Context, value, name string) error {
	fx, err := fixtures(ctx)
	if err != nil {
		return err
	}
	fx.World.Set(name, expand(fx, value))
	return nil
}

func siblingName(root any, path string) string {
	idx := strings.LastIndexAny(path, ".[")
	if idx < 0 {
		return nameField(root)
	}
	parent, err := vars.SelectPath(root, path[:idx])
	if err != nil {
		return ""
	}
	return nameField(parent)
}

func nameField(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj["name"].(string)
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
