// Package agent answers free-form questions about a client by fanning out to
// five context sources in parallel, assembling what came back into a prompt,
// and asking an LLM. A source that fails contributes nothing; it never fails
// the query.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/personapro/enrich/internal/fault"
	"github.com/personapro/enrich/internal/store"
)

// Mode selects the answering model.
const (
	ModeQuick = "quick"
	ModeDeep  = "deep"
)

const (
	quickModel = openai.GPT4oMini
	deepModel  = openai.GPT4o
)

// chatHistoryLimit bounds how many prior turns feed the prompt.
const chatHistoryLimit = 10

// source identifiers, also used as citation sources.
const (
	srcClientRecord  = "client_record"
	srcContacts      = "contacts"
	srcSemantic      = "semantic_search"
	srcChatHistory   = "chat_history"
	srcOpportunities = "opportunities"
)

// ChatCompleter is the slice of the OpenAI client the agent uses.
// Satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Query is one agent invocation.
type Query struct {
	ClientID string
	UserID   string
	Question string
	Mode     string
	// Authorization is the caller's bearer header, forwarded verbatim to the
	// semantic search service.
	Authorization string
}

// Citation records which context source contributed to the answer.
type Citation struct {
	Source    string  `json:"source"`
	Type      string  `json:"type"`
	Relevance float64 `json:"relevance,omitempty"`
}

// Answer is the agent's response.
type Answer struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	Sources        []string   `json:"sources"`
	ProcessingTime int64      `json:"processingTime"`
	Mode           string     `json:"mode"`
	Model          string     `json:"model"`
}

// Agent wires the context sources to the answering model. The searcher is
// optional; without one the semantic source contributes nothing.
type Agent struct {
	store  store.Store
	search SemanticSearcher
	llm    ChatCompleter
}

// New creates an Agent.
func New(st store.Store, search SemanticSearcher, llm ChatCompleter) *Agent {
	return &Agent{store: st, search: search, llm: llm}
}

// gathered holds the five fan-out results. Zero values mean the source
// contributed nothing, whether it was empty or it failed.
type gathered struct {
	client        *store.ClientRecord
	contacts      []storeContact
	hits          []SearchHit
	history       []store.ChatMessage
	opportunities []store.Opportunity
}

type storeContact struct {
	Name            string
	Email           string
	Role            string
	IsDecisionMaker bool
}

// Run answers the question. The five context reads run concurrently and each
// degrades independently: a failed read is logged and treated as empty.
func (a *Agent) Run(ctx context.Context, q Query) (*Answer, error) {
	if strings.TrimSpace(q.Question) == "" {
		return nil, &fault.ValidationError{Field: "question"}
	}
	if strings.TrimSpace(q.ClientID) == "" {
		return nil, &fault.ValidationError{Field: "clientId"}
	}
	model, err := modelFor(q.Mode)
	if err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = ModeQuick
	}

	start := time.Now()
	g := a.gather(ctx, q)

	contextText, sources, citations := compose(g)

	resp, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a sales-intelligence assistant. Answer using only the " +
					"provided context; say so plainly when the context does not cover the question.",
			},
			{Role: openai.ChatMessageRoleUser, Content: contextText + "\n\nQuestion: " + q.Question},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "agent: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("agent: empty choices")
	}
	answer := resp.Choices[0].Message.Content

	a.saveTurn(ctx, q, answer)

	elapsed := time.Since(start)
	zap.L().Info("agent query answered",
		zap.String("client_id", q.ClientID),
		zap.String("mode", q.Mode),
		zap.Strings("sources", sources),
		zap.Duration("elapsed", elapsed),
	)

	return &Answer{
		Answer:         answer,
		Citations:      citations,
		Sources:        sources,
		ProcessingTime: elapsed.Milliseconds(),
		Mode:           q.Mode,
		Model:          model,
	}, nil
}

func modelFor(mode string) (string, error) {
	switch mode {
	case "", ModeQuick:
		return quickModel, nil
	case ModeDeep:
		return deepModel, nil
	default:
		return "", &fault.ValidationError{Field: "mode", Message: "must be quick or deep"}
	}
}

// gather runs the five context reads concurrently. Every read degrades to
// empty on failure.
func (a *Agent) gather(ctx context.Context, q Query) gathered {
	var g gathered
	var wg sync.WaitGroup

	degrade := func(source string, err error) {
		zap.L().Warn("context source degraded",
			zap.String("source", source),
			zap.String("client_id", q.ClientID),
			zap.Error(err),
		)
	}

	wg.Add(5)
	go func() {
		defer wg.Done()
		rec, err := a.store.GetClient(ctx, q.ClientID, q.UserID)
		if err != nil {
			degrade(srcClientRecord, err)
			return
		}
		g.client = rec
	}()
	go func() {
		defer wg.Done()
		contacts, err := a.store.ListContacts(ctx, q.ClientID)
		if err != nil {
			degrade(srcContacts, err)
			return
		}
		for _, c := range contacts {
			g.contacts = append(g.contacts, storeContact{
				Name: c.Name, Email: c.Email, Role: c.Role, IsDecisionMaker: c.IsDecisionMaker,
			})
		}
	}()
	go func() {
		defer wg.Done()
		if a.search == nil {
			return
		}
		hits, err := a.search.Search(ctx, q.ClientID, q.Question, q.Authorization)
		if err != nil {
			degrade(srcSemantic, err)
			return
		}
		g.hits = hits
	}()
	go func() {
		defer wg.Done()
		history, err := a.store.ListChatHistory(ctx, q.ClientID, q.UserID, chatHistoryLimit)
		if err != nil {
			degrade(srcChatHistory, err)
			return
		}
		g.history = history
	}()
	go func() {
		defer wg.Done()
		opps, err := a.store.ListOpportunities(ctx, q.ClientID)
		if err != nil {
			degrade(srcOpportunities, err)
			return
		}
		g.opportunities = opps
	}()
	wg.Wait()
	return g
}

// compose renders the gathered context and derives sources/citations from
// whichever reads contributed non-empty content.
func compose(g gathered) (string, []string, []Citation) {
	var sb strings.Builder
	sources := []string{}
	citations := []Citation{}

	add := func(source, typ string, relevance float64) {
		sources = append(sources, source)
		citations = append(citations, Citation{Source: source, Type: typ, Relevance: relevance})
	}

	sb.WriteString("Context about the client:\n")

	if g.client != nil {
		fmt.Fprintf(&sb, "\n## Client record\nCompany: %s\nWebsite: %s\nIndustry: %s\nDescription: %s\n",
			g.client.Company, g.client.Website, g.client.Industry, g.client.Description)
		if g.client.City != "" || g.client.Country != "" {
			fmt.Fprintf(&sb, "Location: %s %s\n", g.client.City, g.client.Country)
		}
		add(srcClientRecord, "structured", 0)
	}

	if len(g.contacts) > 0 {
		sb.WriteString("\n## Contacts\n")
		for _, c := range g.contacts {
			marker := ""
			if c.IsDecisionMaker {
				marker = " [decision maker]"
			}
			fmt.Fprintf(&sb, "- %s, %s (%s)%s\n", c.Name, c.Role, c.Email, marker)
		}
		add(srcContacts, "structured", 0)
	}

	if len(g.hits) > 0 {
		sb.WriteString("\n## Related documents\n")
		top := 0.0
		for _, h := range g.hits {
			fmt.Fprintf(&sb, "- %s (from %s)\n", h.Content, h.Source)
			if h.Score > top {
				top = h.Score
			}
		}
		add(srcSemantic, "semantic", top)
	}

	if len(g.history) > 0 {
		sb.WriteString("\n## Recent conversation\n")
		// History arrives newest-first; the prompt reads oldest-first.
		for i := len(g.history) - 1; i >= 0; i-- {
			fmt.Fprintf(&sb, "%s: %s\n", g.history[i].Role, g.history[i].Content)
		}
		add(srcChatHistory, "conversation", 0)
	}

	if len(g.opportunities) > 0 {
		sb.WriteString("\n## Opportunities\n")
		for _, o := range g.opportunities {
			fmt.Fprintf(&sb, "- %s (%s, %s): %s\n", o.Title, o.Stage, o.Value, o.Notes)
		}
		add(srcOpportunities, "structured", 0)
	}

	return sb.String(), sources, citations
}

// saveTurn records the question and answer in chat history. Best effort; a
// storage failure does not fail the already-answered query.
func (a *Agent) saveTurn(ctx context.Context, q Query, answer string) {
	for _, msg := range []store.ChatMessage{
		{ClientID: q.ClientID, UserID: q.UserID, Role: "user", Content: q.Question},
		{ClientID: q.ClientID, UserID: q.UserID, Role: "assistant", Content: answer},
	} {
		if err := a.store.SaveChatMessage(ctx, msg); err != nil {
			zap.L().Warn("chat turn not saved", zap.Error(err))
			return
		}
	}
}
