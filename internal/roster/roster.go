// Package roster fetches unit profiles from an external datasheet API so
// lobbies can offer stat lines beyond the bundled scenario. The client is
// optional: with no base URL configured, every lookup reports it disabled
// and the server sticks to scenario units.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/game"
)

// ErrDisabled is returned when no data API base URL is configured.
var ErrDisabled = errors.New("roster: data API not configured")

const cacheTTL = 5 * time.Minute

// Faction is one selectable army.
type Faction struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is a gameplay-ready unit stat line derived from the data API.
type Profile struct {
	Name      string       `json:"name"`
	HP        int          `json:"hp"`
	Move      int          `json:"move"`
	Toughness int          `json:"toughness"`
	Save      int          `json:"save"`
	InvSave   int          `json:"invSave"`
	Ranged    *game.Weapon `json:"ranged,omitempty"`
	Melee     *game.Weapon `json:"melee"`
	Points    int          `json:"points"`
}

// Client talks to the datasheet API with a small per-path response cache.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	raw []byte
	at  time.Time
}

// NewClient builds a client for the given base URL. An empty base yields a
// disabled client.
func NewClient(base string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		http:  &http.Client{Timeout: 8 * time.Second},
		cache: map[string]cacheEntry{},
	}
}

// Enabled reports whether a data API is configured.
func (c *Client) Enabled() bool { return c.base != "" }

func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	c.mu.RLock()
	entry, hit := c.cache[path]
	c.mu.RUnlock()
	if hit && time.Since(entry.at) < cacheTTL {
		return json.Unmarshal(entry.raw, out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("roster: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("roster: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("roster: %s: status %d", path, resp.StatusCode)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("roster: %s: decode: %w", path, err)
	}
	c.mu.Lock()
	c.cache[path] = cacheEntry{raw: raw, at: time.Now()}
	c.mu.Unlock()
	return json.Unmarshal(raw, out)
}

// Factions lists the armies the data API knows about.
func (c *Client) Factions(ctx context.Context) ([]Faction, error) {
	var out []Faction
	if err := c.get(ctx, "/api/factions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Wire formats of the upstream API.
type apiUnit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiModel struct {
	T  string `json:"T"`
	Sv string `json:"Sv"`
	Nv string `json:"inv_sv"`
	W  string `json:"W"`
	M  string `json:"M"`
}

type apiWeapon struct {
	Name     string `json:"name"`
	Range    string `json:"range"`
	Type     string `json:"type"`
	Attacks  string `json:"attacks"`
	Skill    string `json:"bs_ws"`
	Strength string `json:"strength"`
	AP       string `json:"ap"`
	Damage   string `json:"damage"`
}

// Units builds playable profiles for one faction. Units whose models fail
// to load are skipped rather than failing the whole roster.
func (c *Client) Units(ctx context.Context, faction string) ([]Profile, error) {
	slug := toSlug(faction)
	var list []apiUnit
	if err := c.get(ctx, "/api/"+slug+"/units", &list); err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(list))
	for _, u := range list {
		var models []apiModel
		if err := c.get(ctx, "/api/"+slug+"/"+u.ID+"/models", &models); err != nil || len(models) == 0 {
			continue
		}
		var weapons []apiWeapon
		if err := c.get(ctx, "/api/"+slug+"/"+u.ID+"/weapons", &weapons); err != nil {
			weapons = nil
		}
		out = append(out, buildProfile(u.Name, models[0], weapons))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("roster: no usable units for faction %q", faction)
	}
	return out, nil
}

func buildProfile(name string, m apiModel, weapons []apiWeapon) Profile {
	p := Profile{
		Name:      name,
		HP:        atoiOr(m.W, 2),
		Move:      atoiOr(m.M, 3),
		Toughness: atoiOr(m.T, 4),
		Save:      parseSave(m.Sv, 4),
		InvSave:   parseSave(m.Nv, 0),
	}
	for _, w := range weapons {
		gw := toWeapon(w)
		if isMelee(w) {
			if p.Melee == nil {
				p.Melee = gw
			}
			continue
		}
		if p.Ranged == nil {
			p.Ranged = gw
		}
	}
	// Every unit fights in melee somehow, even if the sheet lists nothing.
	if p.Melee == nil {
		p.Melee = &game.Weapon{
			Name: "close combat weapon", Range: 1, Attacks: "1",
			Skill: 4, Strength: p.Toughness, AP: 0, Damage: "1",
		}
	}
	return p
}

func isMelee(w apiWeapon) bool {
	if strings.Contains(strings.ToLower(w.Type), "melee") {
		return true
	}
	r := strings.ToLower(strings.TrimSpace(w.Range))
	return r == "" || r == "melee"
}

func toWeapon(w apiWeapon) *game.Weapon {
	return &game.Weapon{
		Name:     w.Name,
		Range:    atoiOr(w.Range, 1),
		Attacks:  exprOr(w.Attacks, "1"),
		Skill:    parseSave(w.Skill, 4),
		Strength: atoiOr(w.Strength, 4),
		AP:       abs(atoiOr(w.AP, 0)),
		Damage:   exprOr(w.Damage, "1"),
	}
}

// exprOr keeps a stat only if it is a rollable dice expression; upstream
// sheets carry footnote markers and blanks in these columns.
func exprOr(s, def string) string {
	s = strings.TrimSpace(s)
	if dice.Check(s) != nil {
		return def
	}
	return s
}

func toSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

// atoiOr pulls the first integer out of a stat string like "3+", "24" or
// `6"`, falling back to def.
func atoiOr(s string, def int) int {
	s = strings.TrimSpace(s)
	num := ""
	for i, r := range s {
		if (r == '-' && i == 0) || (r >= '0' && r <= '9') {
			num += string(r)
		} else if num != "" {
			break
		}
	}
	if n, err := strconv.Atoi(num); err == nil {
		return n
	}
	return def
}

// parseSave reads "3+" style thresholds; def covers absent values, which
// matters for invulnerable saves where 0 means none.
func parseSave(s string, def int) int {
	n := atoiOr(s, def)
	if n == 0 {
		return 0
	}
	if n < 2 {
		return 2
	}
	if n > 6 {
		return 6
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
