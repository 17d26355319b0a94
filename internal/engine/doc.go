// Package engine drives a pluggable qualifier checker over function bodies.
//
// A Checker supplies its lattice, default policy and tree annotator. The engine computes the
// annotated type of every expression bottom-up: the checker annotator runs first, then the
// general propagation, then the defaulting engine fills what is left. Local variables the
// defaulting policy marks refinable get flow sensitive qualifiers solved over the control flow
// graph of the body before any site is validated.
//
// Sites validated with the consistency checker:
//
//   - assignments and declarations to targets with fixed qualifiers (explicit locals, fields,
//     package variables, named results, dereferences and index expressions);
//   - call arguments against parameter qualifiers;
//   - returned values against result qualifiers;
//   - composite literal fields and elements.
//
// Checkers may also classify constant values and validate operations by implementing
// ValueClassifier and OperationChecker.
package engine
