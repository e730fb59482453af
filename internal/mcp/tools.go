package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/xacct/internal/account"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
)

// AccountListInput represents the input for the account_list tool
type AccountListInput struct {
	Reveal bool `json:"reveal,omitempty" jsonschema:"Return passwords in clear text instead of ***"`
}

// AccountUpdateInput represents the input for the account_update tool.
// Nil fields keep the stored value.
type AccountUpdateInput struct {
	ID       string  `json:"id"`
	Type     *string `json:"type,omitempty"`
	Login    *string `json:"login,omitempty"`
	Password *string `json:"password,omitempty"`
	Labels   *string `json:"labels,omitempty"`
}

// AccountDeleteInput represents the input for the account_delete tool
type AccountDeleteInput struct {
	ID string `json:"id" jsonschema:"Account id to remove"`
}

// LabelsParseInput represents the input for the labels_parse tool
type LabelsParseInput struct {
	Text string `json:"text" jsonschema:"Labels separated by ';'"`
}

// LabelsFormatInput represents the input for the labels_format tool
type LabelsFormatInput struct {
	Labels []string `json:"labels" jsonschema:"Label texts in order"`
}

// ToolHandler manages MCP tools.
// The repository is single-threaded; every call that touches it holds mu.
type ToolHandler struct {
	mu   sync.Mutex
	repo *account.Repository
}

// NewToolHandler creates a new tool handler around a loaded repository
func NewToolHandler(repo *account.Repository) *ToolHandler {
	return &ToolHandler{repo: repo}
}

// RegisterTools registers all tools with the MCP server
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	mcp.AddTool[AccountListInput, any](server, &mcp.Tool{
		Name:        "account_list",
		Description: "List stored accounts in order",
	}, h.AccountList)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "account_create",
		Description: "Append a new empty LOCAL account and return it",
	}, h.AccountCreate)

	// account_update 的 type 需要 enum，手写 schema
	updateSchema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id"},
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "string",
				Description: "Account id",
			},
			"type": {
				Type:        "string",
				Description: "Account type; LDAP accounts never keep a password",
				Enum:        []any{string(account.TypeLDAP), string(account.TypeLocal)},
			},
			"login": {
				Type:        "string",
				Description: "Login name",
			},
			"password": {
				Type:        "string",
				Description: "Password (ignored for LDAP)",
			},
			"labels": {
				Type:        "string",
				Description: "Labels separated by ';'",
			},
		},
	}
	server.AddTool(&mcp.Tool{
		Name:        "account_update",
		Description: "Update fields of an existing account",
		InputSchema: updateSchema,
	}, h.accountUpdateHandler)

	mcp.AddTool[AccountDeleteInput, any](server, &mcp.Tool{
		Name:        "account_delete",
		Description: "Remove every account with the given id",
	}, h.AccountDelete)

	mcp.AddTool[LabelsParseInput, any](server, &mcp.Tool{
		Name:        "labels_parse",
		Description: "Split a label string into labels",
	}, h.LabelsParse)

	mcp.AddTool[LabelsFormatInput, any](server, &mcp.Tool{
		Name:        "labels_format",
		Description: "Join labels with '; '",
	}, h.LabelsFormat)
}

// accountUpdateHandler is the raw handler for account_update tool
func (h *ToolHandler) accountUpdateHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input AccountUpdateInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
	}
	result, _, err := h.AccountUpdate(ctx, req, input)
	return result, err
}

// AccountList lists accounts
func (h *ToolHandler) AccountList(ctx context.Context, req *mcp.CallToolRequest, input AccountListInput) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	accounts := h.repo.List()
	h.mu.Unlock()
	return okResult(account.NewTable(accounts, input.Reveal)), nil, nil
}

// AccountCreate appends a new account
func (h *ToolHandler) AccountCreate(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, xe := h.repo.Create(ctx)
	if xe != nil {
		return errorResult(xe), nil, nil
	}
	return okResult(a), nil, nil
}

// AccountUpdate applies the given fields to the stored account
func (h *ToolHandler) AccountUpdate(ctx context.Context, req *mcp.CallToolRequest, input AccountUpdateInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return errorResult(errors.New(errors.CodeCfgInvalid, "id is required", nil)), nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.repo.Get(input.ID)
	if !ok {
		return errorResult(errors.New(errors.CodeAccountNotFound, "account not found", map[string]any{"id": input.ID})), nil, nil
	}
	if input.Type != nil {
		typ, err := account.ParseType(*input.Type)
		if err != nil {
			return errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid account type", map[string]any{"type": *input.Type}, err)), nil, nil
		}
		a.Type = typ
	}
	if input.Login != nil {
		a.Login = *input.Login
	}
	if input.Password != nil {
		a.Password = account.StringPtr(*input.Password)
	}
	if input.Labels != nil {
		a.Labels = account.ParseLabels(*input.Labels)
	}
	// LDAP -> LOCAL 时密码为 null，补成空串
	if a.Type == account.TypeLocal && a.Password == nil {
		a.Password = account.StringPtr("")
	}

	if _, xe := h.repo.Update(ctx, &a); xe != nil {
		return errorResult(xe), nil, nil
	}
	return okResult(account.Redact(a)), nil, nil
}

// AccountDelete removes accounts by id
func (h *ToolHandler) AccountDelete(ctx context.Context, req *mcp.CallToolRequest, input AccountDeleteInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return errorResult(errors.New(errors.CodeCfgInvalid, "id is required", nil)), nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n, xe := h.repo.Delete(ctx, input.ID)
	if xe != nil {
		return errorResult(xe), nil, nil
	}
	return okResult(map[string]any{"id": input.ID, "removed": n}), nil, nil
}

// LabelsParse splits a label string
func (h *ToolHandler) LabelsParse(ctx context.Context, req *mcp.CallToolRequest, input LabelsParseInput) (*mcp.CallToolResult, any, error) {
	return okResult(map[string]any{"labels": account.ParseLabels(input.Text)}), nil, nil
}

// LabelsFormat joins label texts
func (h *ToolHandler) LabelsFormat(ctx context.Context, req *mcp.CallToolRequest, input LabelsFormatInput) (*mcp.CallToolResult, any, error) {
	labels := make([]account.Label, len(input.Labels))
	for i, l := range input.Labels {
		labels[i] = account.Label{Text: l}
	}
	return okResult(map[string]any{"text": account.StringifyLabels(labels)}), nil, nil
}

// okResult wraps data in the success envelope
func okResult(data any) *mcp.CallToolResult {
	text, err := marshalEnvelope(output.Success(data))
	if err != nil {
		return errorResult(errors.Wrap(errors.CodeInternal, "failed to marshal result", nil, err))
	}
	// Return result directly in content per RFC
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatError(err)},
		},
	}
}

// formatError formats an error as JSON
func formatError(err error) string {
	text, _ := marshalEnvelope(output.Failure(errors.AsOrWrap(err)))
	return text
}

func marshalEnvelope(env output.Envelope) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// CreateServer creates a new MCP server
func CreateServer(version string, repo *account.Repository) (*mcp.Server, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInternal, "account repository is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xacct",
		Version: version,
	}, nil)

	handler := NewToolHandler(repo)
	handler.RegisterTools(server)

	return server, nil
}
