// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

// helpText is the response to the help command, sent verbatim.
const helpText = "Promptly reports when selected people show up in consultation rooms.\n" +
	"\n" +
	"Usage: `command ...arguments`\n" +
	"Commands are case-insensitive.\n" +
	"\n" +
	"About `fuzzy` arguments:\n" +
	"They are matched not by \"equals\" but by \"most similar\".\n" +
	"For example: of all the names in the directory, `wolf` is most similar to `Woolfer#1420`.\n" +
	"\n" +
	"Commands:\n" +
	"`add fuzzy_name ...`\n" +
	"    Subscribes you to the named people.\n" +
	"    e.g. `add c3h6o#7390 wolf`\n" +
	"\n" +
	"`del fuzzy_name ...`\n" +
	"    Unsubscribes you from whoever you name.\n" +
	"    e.g. `del norte clcos pershin`\n" +
	"\n" +
	"`help`\n" +
	"    Prints all of this.\n"

// readHelp is the generic response to an unknown verb or failed
// argument validation.
const readHelp = "You're wrong. Read the help (help)."
