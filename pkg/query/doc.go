// Package query is a fluent SQL builder on top of the db package.
//
// Clauses are accumulated through chained calls and rendered in a fixed
// order (joins, WHERE, GROUP BY, ORDER BY, HAVING, LIMIT) with "?"
// placeholders:
//
//	rows, err := query.New(dao, query.WithTable("t_utilisateur")).
//		Fields("uti_id", "uti_nom").
//		WhereCond(query.Op("uti_nom", "LIKE", "dur%")).
//		Order("uti_nom").
//		Limit(10).
//		Select(ctx)
//
// Structured conditions are built with Eq, Op, And, Or and Not, or parsed
// from the nested-slice syntax accepted by ParseCond.
//
// A Builder clears its clauses after every execution. Errors recorded while
// chaining (an invalid identifier, an unknown operator) are returned by the
// executing call.
package query
