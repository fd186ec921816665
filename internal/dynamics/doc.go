// Package dynamics implements articulated rigid and soft multibody
// dynamics over a tree of bodies.
//
// The main pieces:
//
//   - [Skeleton]: the tree container; owns the generalized coordinates,
//     drives the recursive passes in breadth-first body order and caches
//     the system matrices behind dirty flags
//   - [BodyNode]: a rigid body with its parent [Joint]
//   - [SoftBodyNode]: a rigid shell carrying spring-connected point masses
//   - [Joint] implementations: weld, revolute, prismatic, universal, ball,
//     translational and free
//
// Algorithms are the standard recursive ones: articulated body forward
// dynamics, recursive Newton-Euler inverse dynamics, composite rigid body
// mass matrix assembly, and an impulse pass sharing the articulated
// inertias with forward dynamics.
package dynamics
