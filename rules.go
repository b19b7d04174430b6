package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// The closed category set, ordered by operational urgency. The order is the
// tie-break when two categories score identically.
var categoryPriority = []string{"outage", "defect", "routing_issue", "enhancement", "inquiry", "action"}

func validCategory(name string) bool {
	for _, c := range categoryPriority {
		if c == name {
			return true
		}
	}
	return false
}

type CategoryRule struct {
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

type FeatureWeights struct {
	ModalEnhancement      float64 `yaml:"modal_enhancement"`
	QuestionInquiry       float64 `yaml:"question_inquiry"`
	NegationDefect        float64 `yaml:"negation_defect"`
	ImperativeEnhancement float64 `yaml:"imperative_enhancement"`
}

type RulesConfig struct {
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	NameMatchThreshold  float64        `yaml:"name_match_threshold"`
	FeatureWeights      FeatureWeights `yaml:"feature_weights"`
}

// ruleDocument is the on-disk shape shared by the base document and the
// custom overlay. The base document uses config+categories; the overlay
// uses contexts, overrides, keyword_overrides and corrections. Only the
// overlay file is ever rewritten (by the rule learner).
type ruleDocument struct {
	Config     *RulesConfig            `yaml:"config,omitempty"`
	Categories map[string]CategoryRule `yaml:"categories,omitempty"`

	Contexts         map[string]map[string]CategoryRule `yaml:"contexts,omitempty"`
	Overrides        map[string]CategoryRule            `yaml:"overrides,omitempty"`
	KeywordOverrides keywordOverrides                   `yaml:"keyword_overrides,omitempty"`
	Corrections      map[string]string                  `yaml:"corrections,omitempty"`
}

type keywordOverrides struct {
	AlwaysInclude []string `yaml:"always_include,omitempty"`
	AlwaysExclude []string `yaml:"always_exclude,omitempty"`
}

// RuleSet holds the merged-by-precedence rule layers for one run. Loaded
// once at run start and treated as read-only from then on.
type RuleSet struct {
	Config        RulesConfig
	Base          map[string]CategoryRule
	Contexts      map[string]map[string]CategoryRule
	Overrides     map[string]CategoryRule
	AlwaysInclude []string
	AlwaysExclude []string
	Corrections   map[string]string
}

func defaultRulesConfig() RulesConfig {
	return RulesConfig{
		ConfidenceThreshold: 0.5,
		NameMatchThreshold:  0.85,
		FeatureWeights: FeatureWeights{
			ModalEnhancement:      1.5,
			QuestionInquiry:       2.0,
			NegationDefect:        1.0,
			ImperativeEnhancement: 0.5,
		},
	}
}

// defaultBaseRules is the built-in base layer, used when no base document
// exists on disk.
func defaultBaseRules() map[string]CategoryRule {
	return map[string]CategoryRule{
		"outage": {Weight: 1.0, Keywords: []string{
			"outage", "down", "unavailable", "500 errors", "503", "timeout",
			"degraded", "incident", "cannot connect", "all requests failing",
		}},
		"defect": {Weight: 1.0, Keywords: []string{
			"bug", "broken", "error", "crash", "fails", "exception",
			"stack trace", "regression", "wrong result", "does not work",
		}},
		"enhancement": {Weight: 1.0, Keywords: []string{
			"feature request", "improvement", "would be nice", "support for",
			"add option", "enhancement", "feature",
		}},
		"inquiry": {Weight: 1.0, Keywords: []string{
			"how do i", "how to", "question", "documentation", "clarify",
			"what is", "is it possible",
		}},
		"routing_issue": {Weight: 1.0, Keywords: []string{
			"wrong team", "reassign", "not our service", "escalate",
			"transferred", "wrong queue",
		}},
		"action": {Weight: 1.0, Keywords: []string{
			"please run", "access request", "grant", "provision", "rotate",
			"deploy request",
		}},
	}
}

// LoadRules reads the base rule document and the custom overlay. A missing
// base file falls back to the built-in rules; a missing or unparseable
// overlay falls back to base rules only. Neither is an error.
func LoadRules(basePath, overlayPath string) RuleSet {
	rs := RuleSet{
		Config:      defaultRulesConfig(),
		Base:        defaultBaseRules(),
		Contexts:    map[string]map[string]CategoryRule{},
		Overrides:   map[string]CategoryRule{},
		Corrections: map[string]string{},
	}

	if doc, err := readRuleDocument(basePath); err != nil {
		log.Printf("rules base document unavailable path=%s err=%v (using built-in rules)", basePath, err)
	} else {
		if doc.Config != nil {
			mergeRulesConfig(&rs.Config, *doc.Config)
		}
		if len(doc.Categories) > 0 {
			rs.Base = doc.Categories
		}
	}

	if overlayPath == "" {
		return rs
	}
	doc, err := readRuleDocument(overlayPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("rules overlay invalid path=%s err=%v (falling back to base rules)", overlayPath, err)
		}
		return rs
	}
	if doc.Config != nil {
		mergeRulesConfig(&rs.Config, *doc.Config)
	}
	if doc.Contexts != nil {
		rs.Contexts = doc.Contexts
	}
	if doc.Overrides != nil {
		rs.Overrides = doc.Overrides
	}
	rs.AlwaysInclude = doc.KeywordOverrides.AlwaysInclude
	rs.AlwaysExclude = doc.KeywordOverrides.AlwaysExclude
	if doc.Corrections != nil {
		rs.Corrections = doc.Corrections
	}
	return rs
}

func readRuleDocument(path string) (*ruleDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule yaml: %w", err)
	}
	return &doc, nil
}

func mergeRulesConfig(dst *RulesConfig, src RulesConfig) {
	if src.ConfidenceThreshold > 0 {
		dst.ConfidenceThreshold = src.ConfidenceThreshold
	}
	if src.NameMatchThreshold > 0 {
		dst.NameMatchThreshold = src.NameMatchThreshold
	}
	fw := src.FeatureWeights
	if fw.ModalEnhancement > 0 {
		dst.FeatureWeights.ModalEnhancement = fw.ModalEnhancement
	}
	if fw.QuestionInquiry > 0 {
		dst.FeatureWeights.QuestionInquiry = fw.QuestionInquiry
	}
	if fw.NegationDefect > 0 {
		dst.FeatureWeights.NegationDefect = fw.NegationDefect
	}
	if fw.ImperativeEnhancement > 0 {
		dst.FeatureWeights.ImperativeEnhancement = fw.ImperativeEnhancement
	}
}

// Correction returns the operator-corrected category for a ticket, checking
// every reference key the ticket carries.
func (rs RuleSet) Correction(t ConsolidatedTicket) (string, bool) {
	for _, ref := range t.References {
		if cat, ok := rs.Corrections[ref.Key()]; ok && validCategory(cat) {
			return cat, true
		}
	}
	return "", false
}

// EffectiveKeywords returns the keyword->weight table for one category,
// merged across base, the matching context layer, and global overrides.
// The layers are queried in priority order and never mutated; a keyword
// defined in several layers keeps the highest weight. Globally excluded
// keywords are dropped.
func (rs RuleSet) EffectiveKeywords(category, context string) map[string]float64 {
	out := make(map[string]float64)
	apply := func(rule CategoryRule, ok bool) {
		if !ok {
			return
		}
		weight := rule.Weight
		if weight == 0 {
			weight = 1.0
		}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if weight > out[kw] {
				out[kw] = weight
			}
		}
	}

	rule, ok := rs.Base[category]
	apply(rule, ok)
	if context != "" {
		if layer, found := rs.Contexts[context]; found {
			rule, ok = layer[category]
			apply(rule, ok)
		}
	}
	rule, ok = rs.Overrides[category]
	apply(rule, ok)

	for _, excluded := range rs.AlwaysExclude {
		delete(out, strings.ToLower(strings.TrimSpace(excluded)))
	}
	return out
}

// excludedSet returns the lowercased global exclude list as a set.
func (rs RuleSet) excludedSet() map[string]bool {
	out := make(map[string]bool, len(rs.AlwaysExclude))
	for _, kw := range rs.AlwaysExclude {
		out[strings.ToLower(strings.TrimSpace(kw))] = true
	}
	return out
}

// categoryList renders the closed set for prompts and errors.
func categoryList() string {
	cats := make([]string, len(categoryPriority))
	copy(cats, categoryPriority)
	sort.Strings(cats)
	return strings.Join(cats, ", ")
}
