package codegen

const pythonTemplate = `{{define "python"}}"""
{{.Name}}

Agent workflow skeleton exported from flowcanvas.
Implement the tool bodies and refine the agent instructions before running it.
"""

import asyncio

from agents import Agent, GuardrailFunctionOutput, Runner, function_tool, input_guardrail
{{range .Tools}}

@function_tool
def {{.Ident}}(input: str) -> str:
    {{quote .Label}}
    return "processed"
{{end}}{{range .Guardrails}}

@input_guardrail
async def {{.Ident}}(ctx, agent, input) -> GuardrailFunctionOutput:
    {{quote .Label}}
    return GuardrailFunctionOutput(output_info={{quote .Label}}, tripwire_triggered=False)
{{end}}{{range .Agents}}

{{.Ident}} = Agent(
    name={{quote .Label}},
    instructions={{quote (printf "You are %s. Help the user with their request." .Label)}},
    tools=[{{range $i, $t := .Tools}}{{if $i}}, {{end}}{{$t}}{{end}}],
{{- if $.Guardrails}}
    input_guardrails=[{{range $i, $g := $.Guardrails}}{{if $i}}, {{end}}{{$g.Ident}}{{end}}],
{{- end}}
)
{{end}}

async def main(user_input: str) -> str:
    result = user_input
{{- range .Steps}}
{{- if eq .Type "agent"}}
    result = (await Runner.run({{.Ident}}, result)).final_output
{{- else if eq .Type "condition"}}
    # condition: {{.Label}}
{{- end}}
{{- end}}
    return result


if __name__ == "__main__":
    print(asyncio.run(main("Hello")))
{{end}}`

const typescriptTemplate = `{{define "typescript"}}/**
 * {{.Name}}
 *
 * Agent workflow skeleton exported from flowcanvas.
 * Implement the tool bodies and refine the agent instructions before running it.
 */

import { Agent, run, tool } from "@openai/agents";
import { z } from "zod";
{{range .Tools}}
const {{.Ident}} = tool({
  name: {{quote .Ident}},
  description: {{quote .Label}},
  parameters: z.object({ input: z.string() }),
  execute: async ({ input }) => "processed",
});
{{end}}{{range .Guardrails}}
const {{.Ident}} = {
  name: {{quote .Label}},
  execute: async () => ({ outputInfo: {{quote .Label}}, tripwireTriggered: false }),
};
{{end}}{{range .Agents}}
const {{.Ident}} = new Agent({
  name: {{quote .Label}},
  instructions: {{quote (printf "You are %s. Help the user with their request." .Label)}},
  tools: [{{range $i, $t := .Tools}}{{if $i}}, {{end}}{{$t}}{{end}}],
{{- if $.Guardrails}}
  inputGuardrails: [{{range $i, $g := $.Guardrails}}{{if $i}}, {{end}}{{$g.Ident}}{{end}}],
{{- end}}
});
{{end}}
export async function main(userInput: string): Promise<string> {
  let result = userInput;
{{- range .Steps}}
{{- if eq .Type "agent"}}
  result = String((await run({{.Ident}}, result)).finalOutput);
{{- else if eq .Type "condition"}}
  // condition: {{.Label}}
{{- end}}
{{- end}}
  return result;
}

main("Hello").then(console.log);
{{end}}`
