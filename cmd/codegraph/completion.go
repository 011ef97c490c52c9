// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/errors"
)

const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for codegraph.
# Installation:
#   source <(codegraph completion bash)

_codegraph_completion() {
    local cur prev commands
    commands="init index watch status query reset completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --config -q --no-color" -- ${cur}) )
        return 0
    fi

    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        index)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--debug" -- ${cur}) )
            fi
            ;;
        watch)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--debug" -- ${cur}) )
            fi
            ;;
        status)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json" -- ${cur}) )
            fi
            ;;
        query)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json --timeout --limit" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _codegraph_completion codegraph
`

const zshCompletionTemplate = `#compdef codegraph

# Zsh completion script for codegraph.

_codegraph() {
    local -a commands
    commands=(
        'init:Create .codegraph/project.yaml configuration'
        'index:Full scan of the current repository'
        'watch:Watch the repository and incrementally re-index'
        'status:Show project status'
        'query:Execute a raw CozoScript query'
        'reset:Delete local indexed data'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--config[Path to .codegraph/project.yaml]:config file:_files -g "*.yaml"' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                index|watch)
                    _arguments '--debug[Enable debug logging]'
                    ;;
                status)
                    _arguments '--json[Output as JSON]'
                    ;;
                query)
                    _arguments \
                        '--json[Output as JSON]' \
                        '--timeout[Query timeout]:duration:' \
                        '--limit[Row limit]:count:' \
                        '1:cozoscript query:'
                    ;;
                reset)
                    _arguments '--yes[Confirm the reset]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_codegraph
`

const fishCompletionTemplate = `# Fish completion script for codegraph.
# Installation:
#   codegraph completion fish | source

complete -c codegraph -f -n "__fish_use_subcommand" -a "init" -d "Create .codegraph/project.yaml configuration"
complete -c codegraph -f -n "__fish_use_subcommand" -a "index" -d "Full scan of the current repository"
complete -c codegraph -f -n "__fish_use_subcommand" -a "watch" -d "Watch the repository and incrementally re-index"
complete -c codegraph -f -n "__fish_use_subcommand" -a "status" -d "Show project status"
complete -c codegraph -f -n "__fish_use_subcommand" -a "query" -d "Execute a raw CozoScript query"
complete -c codegraph -f -n "__fish_use_subcommand" -a "reset" -d "Delete local indexed data"
complete -c codegraph -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c codegraph -l version -d "Show version and exit"
complete -c codegraph -l config -d "Path to .codegraph/project.yaml" -r

complete -c codegraph -n "__fish_seen_subcommand_from index" -l debug -d "Enable debug logging"
complete -c codegraph -n "__fish_seen_subcommand_from watch" -l debug -d "Enable debug logging"
complete -c codegraph -n "__fish_seen_subcommand_from status" -l json -d "Output as JSON"
complete -c codegraph -n "__fish_seen_subcommand_from query" -l json -d "Output as JSON"
complete -c codegraph -n "__fish_seen_subcommand_from reset" -l yes -d "Confirm the reset"

complete -c codegraph -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c codegraph -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c codegraph -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion executes the 'completion' CLI command, printing a
// shell-specific completion script to stdout.
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph completion <shell>

Generates a shell completion script for bash, zsh, or fish.

Examples:
  source <(codegraph completion bash)
  codegraph completion zsh > "${fpath[1]}/_codegraph"
  codegraph completion fish | source

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'codegraph completion bash', 'codegraph completion zsh', or 'codegraph completion fish'",
		), false)
	}

	switch fs.Arg(0) {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		errors.FatalError(errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell %q is not supported. Valid options: bash, zsh, fish", fs.Arg(0)),
			"Run 'codegraph completion bash', 'codegraph completion zsh', or 'codegraph completion fish'",
		), false)
	}
}
