// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs trees of commands, serially or in parallel, and
// collects their outcomes into a tree of results.
//
// A rollout is built as a SerialBatch of directory stages; each stage holds
// FunctionCommands for single scripts and ParallelBatches for grouped ones.
// Shell scripts run as OSCommands. Results can be printed as a coloured tree
// or saved in binary form and shown later.
package runbatch
