package services

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// ToolDecision is the closed set of capabilities the router can select.
type ToolDecision string

const (
	ToolFindInformation ToolDecision = "find_information"
	ToolWriteContent    ToolDecision = "write_content"
)

// Tool describes one entry of the routing catalog
type Tool struct {
	Name        ToolDecision
	Description string
}

// DefaultToolCatalog lists the capabilities this application dispatches to
func DefaultToolCatalog() []Tool {
	return []Tool{
		{Name: ToolFindInformation, Description: "Look up facts in the indexed documents and answer a question."},
		{Name: ToolWriteContent, Description: "Write new content such as prose, summaries, or creative text."},
	}
}

const (
	toolOpenMarker  = "<tool>"
	toolCloseMarker = "</tool>"
)

// MalformedRouterOutputError indicates the model did not produce the required
// <tool>NAME</tool> pattern at all.
type MalformedRouterOutputError struct {
	Output string
}

func (e *MalformedRouterOutputError) Error() string {
	return fmt.Sprintf("router output missing %s...%s markers: %q", toolOpenMarker, toolCloseMarker, e.Output)
}

// UnknownToolError indicates the model named a tool outside the catalog
type UnknownToolError struct {
	Name    string
	Catalog []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("router selected unknown tool %q (catalog: %s)", e.Name, strings.Join(e.Catalog, ", "))
}

const routerTemplate = `You are a routing assistant. Classify the user's request into exactly one of the available tools.

Available tools:
%s
Reply with the chosen tool's name wrapped in markers, like this: %sname%s
Output nothing else.%s

User request: %s`

const routerStrictReminder = "\nYour previous reply did not follow the format. You MUST output exactly one tool name from the list above, wrapped in the markers, with no other text."

// RouterService classifies a query into one of the catalog's named tools
// using a model-driven decision protocol with strict output parsing. Each
// Decide call is independent and stateless; no retry happens here — the
// dispatcher decides whether to re-ask.
type RouterService struct {
	completion CompletionService
	logger     *log.Logger
}

// NewRouterService creates a new router service
func NewRouterService(completion CompletionService, logger *log.Logger) *RouterService {
	return &RouterService{
		completion: completion,
		logger:     logger,
	}
}

// Decide asks the model to pick a tool for the query
func (s *RouterService) Decide(ctx context.Context, query string, catalog []Tool) (ToolDecision, error) {
	return s.decide(ctx, query, catalog, false)
}

// DecideStrict is Decide with an extra format reminder, for re-asking after a
// malformed or unknown answer.
func (s *RouterService) DecideStrict(ctx context.Context, query string, catalog []Tool) (ToolDecision, error) {
	return s.decide(ctx, query, catalog, true)
}

func (s *RouterService) decide(ctx context.Context, query string, catalog []Tool, strict bool) (ToolDecision, error) {
	var lines strings.Builder
	for _, tool := range catalog {
		fmt.Fprintf(&lines, "- %s: %s\n", tool.Name, tool.Description)
	}

	reminder := ""
	if strict {
		reminder = routerStrictReminder
	}

	prompt := fmt.Sprintf(routerTemplate, lines.String(), toolOpenMarker, toolCloseMarker, reminder, query)

	output, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	decision, err := ParseToolDecision(output, catalog)
	if err != nil {
		s.logger.Printf("Router output rejected: %v", err)
		return "", err
	}

	s.logger.Printf("Routed query to tool %q", decision)
	return decision, nil
}

// ParseToolDecision extracts the substring strictly between the first open
// marker and the first subsequent close marker, trims whitespace, and matches
// it case-sensitively against the catalog.
func ParseToolDecision(output string, catalog []Tool) (ToolDecision, error) {
	open := strings.Index(output, toolOpenMarker)
	if open < 0 {
		return "", &MalformedRouterOutputError{Output: output}
	}

	rest := output[open+len(toolOpenMarker):]
	end := strings.Index(rest, toolCloseMarker)
	if end < 0 {
		return "", &MalformedRouterOutputError{Output: output}
	}

	name := strings.TrimSpace(rest[:end])
	if name == "" {
		return "", &MalformedRouterOutputError{Output: output}
	}

	for _, tool := range catalog {
		if string(tool.Name) == name {
			return tool.Name, nil
		}
	}

	names := make([]string, len(catalog))
	for i, tool := range catalog {
		names[i] = string(tool.Name)
	}
	return "", &UnknownToolError{Name: name, Catalog: names}
}
