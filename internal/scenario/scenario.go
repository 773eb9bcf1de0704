package scenario

import (
	"fmt"
	"math/rand"
	"strings"
)

// ID is a closed set of training scenarios.
type ID string

const (
	Attract  ID = "attract"
	Referral ID = "referral"
	Culture  ID = "culture"
)

// All returns every scenario in display order.
func All() []ID {
	return []ID{Attract, Referral, Culture}
}

// Parse accepts a scenario id or its display title.
func Parse(value string) (ID, error) {
	trimmed := strings.TrimSpace(value)
	for _, id := range All() {
		if strings.EqualFold(trimmed, string(id)) || trimmed == id.Title() {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q", value)
}

// Title is the human-readable scenario name.
func (id ID) Title() string {
	switch id {
	case Attract:
		return "吸引客户到现场"
	case Referral:
		return "请老客户转介绍新客户"
	case Culture:
		return "向客户介绍公司文化"
	default:
		return ""
	}
}

// DefaultQuestions is the built-in prompt pool of the scenario.
func (id ID) DefaultQuestions() []string {
	switch id {
	case Attract:
		return []string{
			"我最近比较忙，有什么事情电话里说就行了吧？",
			"你们展厅离我挺远的，有必要专门跑一趟吗？",
			"我在网上已经看过你们的产品了，还需要到现场看吗？",
			"周末我要陪家人，没时间过去。",
		}
	case Referral:
		return []string{
			"我用着还行，不过身边的朋友好像没有这个需求。",
			"我推荐朋友过来，对我有什么好处吗？",
			"我不太想把朋友的联系方式给别人。",
		}
	case Culture:
		return []string{
			"你们公司成立多久了？凭什么让我相信你们？",
			"你们和其他公司相比有什么不一样的地方？",
			"听说你们很重视服务，具体体现在哪里？",
		}
	default:
		return nil
	}
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// Context is the active scenario for one training session.
type Context struct {
	ID        ID       `json:"id"`
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
	Current   string   `json:"current"`
}

// Load resolves a scenario, applies an optional pool override and samples
// the session's question. A nil picker samples uniformly at random.
func Load(value string, overrides map[ID][]string, pick Picker) (Context, error) {
	id, err := Parse(value)
	if err != nil {
		return Context{}, err
	}
	if pick == nil {
		pick = rand.Intn
	}

	pool := id.DefaultQuestions()
	if custom := cleanPool(overrides[id]); len(custom) > 0 {
		pool = custom
	}

	ctx := Context{
		ID:        id,
		Title:     id.Title(),
		Questions: append([]string(nil), pool...),
	}
	if len(pool) > 0 {
		ctx.Current = pool[pick(len(pool))]
	}
	return ctx, nil
}

func cleanPool(pool []string) []string {
	var out []string
	for _, question := range pool {
		if trimmed := strings.TrimSpace(question); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
