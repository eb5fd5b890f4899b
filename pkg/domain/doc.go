/*
Package domain contains the core models of the Reflex rule engine.

It defines the rule language AST, the closed Value type that flows through
expressions and Memory, and the error and event types shared by the parser,
the evaluator and the interaction loop. This package is kept pure and free of
I/O, following Hexagonal Architecture principles.

# Key Entities

  - Expression: a node of the rule language (literals, calls, logic, pattern built-ins).
  - Rule / RuleSet: condition + ordered actions, and the ordered set that governs behavior.
  - Value: string, bool, number, list or nothing.
  - StateEntry: a timestamped historic value held by Memory.
*/
package domain
