// Package lsp implements the stdio transport and a minimal method
// dispatch for the `trident lsp` subcommand (§6.1). Message wording,
// the full method catalogue, and editor integration are out of scope;
// what's implemented here is the framing (LSP's Content-Length-prefixed
// JSON-RPC) plus the one method pair that actually exercises the
// compiler: textDocument/didOpen and textDocument/didChange reparse
// the document and publish parse diagnostics back to the client.
//
// Generalized from a simpler line-oriented stdin/stdout protocol (read
// framed input, write framed output, log progress to stderr) up to
// Content-Length-prefixed JSON-RPC, which is what the LSP wire format
// actually requires.
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/parser"
)

// Request is a JSON-RPC 2.0 request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is a JSON-RPC 2.0 notification (no ID, no reply expected).
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type didOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type didChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Message  string   `json:"message"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type publishDiagnosticsParams struct {
	URI         string          `json:"uri"`
	Diagnostics []lspDiagnostic `json:"diagnostics"`
}

// Server runs the minimal stdio JSON-RPC loop.
type Server struct {
	in  *bufio.Reader
	out io.Writer
}

// New builds a Server reading framed requests from in and writing
// framed responses/notifications to out.
func New(in io.Reader, out io.Writer) *Server {
	return &Server{in: bufio.NewReader(in), out: out}
}

// Serve runs until the client sends "exit" or the input stream ends.
func (s *Server) Serve() error {
	for {
		msg, err := readFrame(s.in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lsp: reading frame: %w", err)
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		if s.handle(req) {
			return nil
		}
	}
}

// handle dispatches one request/notification. It returns true when the
// server should stop serving (an "exit" notification).
func (s *Server) handle(req Request) bool {
	switch req.Method {
	case "initialize":
		s.reply(req.ID, map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync": 1,
			},
		})
	case "initialized":
		// notification, no reply
	case "shutdown":
		s.reply(req.ID, nil)
	case "exit":
		return true
	case "textDocument/didOpen":
		var p didOpenParams
		if json.Unmarshal(req.Params, &p) == nil {
			s.publishDiagnostics(p.TextDocument.URI, p.TextDocument.Text)
		}
	case "textDocument/didChange":
		var p didChangeParams
		if json.Unmarshal(req.Params, &p) == nil && len(p.ContentChanges) > 0 {
			s.publishDiagnostics(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
		}
	default:
		if len(req.ID) > 0 {
			s.replyError(req.ID, -32601, "method not found: "+req.Method)
		}
	}
	return false
}

func (s *Server) publishDiagnostics(uri, text string) {
	bag := &diag.Bag{}
	parser.Parse(uri, []byte(text), bag)
	diags := make([]lspDiagnostic, 0, len(bag.All()))
	for _, d := range bag.All() {
		diags = append(diags, lspDiagnostic{
			Range: lspRange{
				Start: lspPosition{Line: 0, Character: d.Span.Start},
				End:   lspPosition{Line: 0, Character: d.Span.End},
			},
			Severity: severityCode(d.Severity),
			Message:  d.Message,
		})
	}
	s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{URI: uri, Diagnostics: diags})
}

func severityCode(s diag.Severity) int {
	if s == diag.Error {
		return 1 // LSP DiagnosticSeverity.Error
	}
	return 2 // LSP DiagnosticSeverity.Warning
}

func (s *Server) reply(id json.RawMessage, result interface{}) {
	s.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) replyError(id json.RawMessage, code int, message string) {
	s.write(Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *Server) notify(method string, params interface{}) {
	s.write(Notification{JSONRPC: "2.0", Method: method, Params: params})
}

func (s *Server) write(v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n", len(body))
	s.out.Write(body)
}

// readFrame reads one Content-Length-prefixed JSON-RPC message.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var length int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			v := strings.TrimSpace(line[len("content-length:"):])
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("lsp: bad Content-Length %q: %w", v, err)
			}
			length = n
		}
	}
	if length == 0 {
		return nil, fmt.Errorf("lsp: missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
