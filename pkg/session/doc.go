/*
Package session hosts many concurrent conversations, one fluxo.Run each.

Calls for the same conversation are serialized through ref-counted local
locks and, across replicas, an optional ports.DistributedLocker. Runs that
reach a terminal status are archived into a ports.TranscriptStore.
*/
package session
