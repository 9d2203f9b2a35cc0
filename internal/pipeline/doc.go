// Package pipeline implements video ingestion: issuing upload URLs, reacting
// to finished uploads, transcoding renditions and answering catalog queries.
//
// Each component is constructed with its collaborators (document store,
// object store, event publisher, transcoder) and holds no other state, so
// invocations for unrelated videos run independently.
//
// Typed failures use gRPC status codes: codes.Unauthenticated,
// codes.InvalidArgument, codes.NotFound and codes.Internal.
package pipeline
