// Package sparql provides the typed query representation for the subset of
// SPARQL that cleanup routines use, and a parser from routine text into it.
//
// The subset covers what graph-rewrite rules need and nothing more:
//
//   - SELECT [DISTINCT] ?v ... WHERE { ... } [LIMIT n] [OFFSET n]
//   - DELETE { ... } INSERT { ... } WHERE { ... } update requests, where
//     either rewrite block may be absent
//   - group patterns made of triple patterns, FILTER constraints, and
//     BIND(expr AS ?v) assignments
//   - expressions over STR, REPLACE, CONCAT, IRI, LCASE, UCASE, REGEX,
//     comparisons, and boolean connectives
//
// Full SPARQL compliance is explicitly out of scope; anything outside the
// subset is a parse error rather than silently misinterpreted.
//
// Pattern slots, not strings, are the unit of templating: a {{name}}
// placeholder parses into a Placeholder slot in the triple pattern, so a
// bound literal that happens to contain brace characters can never be
// re-parsed as query syntax when the template is instantiated.
package sparql
