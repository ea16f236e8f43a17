package upstream

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/roles"
)

// User is the authenticated upstream user.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the user and the session cookies set by upstream.
type LoginResult struct {
	User    User
	Cookies []*http.Cookie
}

// Customer is one matched customer of a product segment.
type Customer struct {
	CustomerID string  `json:"customer_id"`
	MatchScore float64 `json:"match_score"`
}

// Recommendations are the flattened recommendation rows for one customer.
// Rows stay raw so column rules can read any field the catalog names.
type Recommendations struct {
	Segment string
	Rows    []gjson.Result
}

// RMProduct is one product line of a relationship-manager table row.
type RMProduct struct {
	ProductName          string  `json:"product_name"`
	ProductID            string  `json:"product_id"`
	KnowledgeQuizScore   float64 `json:"knowledge_quiz_score"`
	KnowledgeMinRequired float64 `json:"knowledge_min_required"`
	MeetsRequirement     bool    `json:"meets_knowledge_requirement"`
}

// RMCustomer is one row of the relationship-manager knowledge table.
type RMCustomer struct {
	CustomerID         string      `json:"customer_id"`
	BaseKnowledgeScore float64     `json:"base_knowledge_score"`
	Bias               string      `json:"bias"`
	Products           []RMProduct `json:"products"`
}

// RMPage is one server-side page of the knowledge table. PageIndex is 1-based.
type RMPage struct {
	Customers  []RMCustomer
	PageIndex  int
	TotalPages int
}

// SankeyRow is one segment → risk → bias → product flow.
type SankeyRow struct {
	Segment string  `json:"segment"`
	Risk    string  `json:"risk"`
	Bias    string  `json:"bias"`
	Product string  `json:"product"`
	Count   float64 `json:"segment_count"`
}

// parseRoot validates body and returns its root.
func parseRoot(body []byte, what string) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: %w", what, ErrMalformedResponse)
	}
	return gjson.ParseBytes(body), nil
}

func parseUser(body []byte) (*User, error) {
	root, err := parseRoot(body, "login")
	if err != nil {
		return nil, err
	}
	u := root.Get("user")
	if !u.IsObject() {
		u = root
	}
	role := u.Get("role")
	if !role.Exists() {
		return nil, fmt.Errorf("login: no role in response: %w", ErrMalformedResponse)
	}
	return &User{
		Email: u.Get("email").String(),
		Role:  role.String(),
	}, nil
}

func parseCustomers(body []byte) ([]Customer, error) {
	root, err := parseRoot(body, "matched customers")
	if err != nil {
		return nil, err
	}
	list := root.Get("matched_customers")
	if list.Exists() && !list.IsArray() {
		return nil, fmt.Errorf("matched customers: not a list: %w", ErrMalformedResponse)
	}

	customers := make([]Customer, 0, len(list.Array()))
	for _, c := range list.Array() {
		customers = append(customers, Customer{
			CustomerID: c.Get("customer_id").String(),
			MatchScore: c.Get("match_score").Float(),
		})
	}
	return customers, nil
}

// parseRecommendations flattens every result's recommendations into one
// list, in response order. The segment is taken from the first result.
func parseRecommendations(body []byte) (*Recommendations, error) {
	root, err := parseRoot(body, "recommendations")
	if err != nil {
		return nil, err
	}
	results := root.Get("results")
	if results.Exists() && !results.IsArray() {
		return nil, fmt.Errorf("recommendations: results not a list: %w", ErrMalformedResponse)
	}

	rec := &Recommendations{}
	for _, r := range results.Array() {
		if rec.Segment == "" {
			rec.Segment = r.Get("customer_segment").String()
		}
		rec.Rows = append(rec.Rows, r.Get("recommendations").Array()...)
	}
	return rec, nil
}

func parseRMPage(body []byte, pageIndex int) (*RMPage, error) {
	root, err := parseRoot(body, "rm data")
	if err != nil {
		return nil, err
	}
	scores := root.Get("charts.knowledge_quiz_scores")
	data := scores.Get("data")
	if data.Exists() && !data.IsArray() {
		return nil, fmt.Errorf("rm data: data not a list: %w", ErrMalformedResponse)
	}

	page := &RMPage{
		PageIndex:  pageIndex,
		TotalPages: int(scores.Get("pagination.total_pages").Int()),
	}
	for _, row := range data.Array() {
		c := RMCustomer{
			CustomerID:         row.Get("customer_id").String(),
			BaseKnowledgeScore: row.Get("base_knowledge_score").Float(),
			Bias:               row.Get("bias").String(),
		}
		for _, p := range row.Get("products").Array() {
			c.Products = append(c.Products, RMProduct{
				ProductName:          p.Get("product_name").String(),
				ProductID:            p.Get("product_id").String(),
				KnowledgeQuizScore:   p.Get("knowledge_quiz_score").Float(),
				KnowledgeMinRequired: p.Get("knowledge_min_required").Float(),
				MeetsRequirement:     p.Get("meets_knowledge_requirement").Bool(),
			})
		}
		page.Customers = append(page.Customers, c)
	}
	return page, nil
}

func parseInsights(body []byte) (*roles.Insights, error) {
	root, err := parseRoot(body, "top insights")
	if err != nil {
		return nil, err
	}
	read := func(path string) []roles.Insight {
		var out []roles.Insight
		root.Get(path).ForEach(func(_, v gjson.Result) bool {
			out = append(out, roles.Insight{
				Name:  strings.TrimSpace(v.Get("name").String()),
				Value: v.Get("value").Float(),
			})
			return true
		})
		return out
	}
	return &roles.Insights{
		TopProducts: read("top_products"),
		TopBiases:   read("top_biases"),
	}, nil
}

// parseSankey accepts either a bare list of rows or {"data": [...]}.
func parseSankey(body []byte) ([]SankeyRow, error) {
	root, err := parseRoot(body, "sankey data")
	if err != nil {
		return nil, err
	}
	list := root
	if !list.IsArray() {
		list = root.Get("data")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("sankey data: no rows: %w", ErrMalformedResponse)
	}

	rows := make([]SankeyRow, 0, len(list.Array()))
	for _, r := range list.Array() {
		rows = append(rows, SankeyRow{
			Segment: r.Get("segment").String(),
			Risk:    r.Get("risk").String(),
			Bias:    r.Get("bias").String(),
			Product: r.Get("product").String(),
			Count:   r.Get("segment_count").Float(),
		})
	}
	return rows, nil
}

// parseRoles accepts {"Role": ["feature", ...]}, the same wrapped in
// "roles", or a list of {"role": ..., "features": [...]}.
func parseRoles(body []byte) (roles.Permissions, error) {
	root, err := parseRoot(body, "roles")
	if err != nil {
		return nil, err
	}
	if wrapped := root.Get("roles"); wrapped.Exists() {
		root = wrapped
	}

	perms := roles.Permissions{}
	switch {
	case root.IsObject():
		root.ForEach(func(k, v gjson.Result) bool {
			perms[k.String()] = stringList(v)
			return true
		})
	case root.IsArray():
		for _, entry := range root.Array() {
			name := entry.Get("role").String()
			if name == "" {
				continue
			}
			perms[name] = stringList(entry.Get("features"))
		}
	default:
		return nil, fmt.Errorf("roles: %w", ErrMalformedResponse)
	}
	return perms, nil
}

// stringList never returns nil for an existing list, so an explicit empty
// list stays distinguishable from a missing mapping.
func stringList(v gjson.Result) []string {
	out := []string{}
	for _, s := range v.Array() {
		out = append(out, s.String())
	}
	return out
}
