// Package core defines the shared domain model of the AiAlive negotiation
// core: persistent entities, ephemeral negotiation participants, negotiation
// sessions with their turn history, and the collaborator interfaces
// (Directory, KnowledgeStore, TextGenerator) the surrounding packages
// implement or consume. It intentionally contains no orchestration logic;
// the debate, consensus and lineage packages build on these types.
package core
