// Package routine loads graph-rewrite routine files into typed steps and
// instantiates rewrite templates against binding rows.
//
// # File format
//
// A routine file is a sequence of named sections:
//
//	### cleanup books
//
//	## normalize isbn
//	DELETE { ?s <http://schema.org/isbn> ?raw }
//	INSERT { ?s <http://schema.org/isbn> ?clean }
//	WHERE  { ?s <http://schema.org/isbn> ?raw .
//	         BIND(REPLACE(STR(?raw), "-", "") AS ?clean)
//	         FILTER(STR(?raw) != STR(?clean)) };
//
//	## merge by isbn@advanced
//	SELECT ?a ?b WHERE { ?a <http://schema.org/isbn> ?i . ?b <http://schema.org/isbn> ?i .
//	                     FILTER(STR(?a) < STR(?b)) }
//	#
//	DELETE { ?s ?p {{b}} } INSERT { ?s ?p {{a}} } WHERE { ?s ?p {{b}} };
//	DELETE { {{b}} ?p ?o } INSERT { {{a}} ?p ?o } WHERE { {{b}} ?p ?o }
//
// "##" introduces a rule section; a trailing "@advanced" tag marks a
// templated merge. Within an advanced section a line containing only "#"
// separates the selection query from the rewrite template, whose statements
// are separated by ";" and applied in written order per binding row.
//
// Placeholders are variable names wrapped in double braces and must be
// projected by the paired selection query; this is validated at load time so
// a broken routine fails before anything touches the graph.
package routine
