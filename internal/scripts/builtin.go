// Package scripts holds the built-in script catalog and the console routes,
// and loads additional script packs from YAML.
package scripts

import (
	"time"

	"pkt.systems/yukora/core"
	"pkt.systems/yukora/schema"
)

func line(text string, ms int) schema.ScriptEntry {
	return schema.ScriptEntry{Text: text, Delay: time.Duration(ms) * time.Millisecond}
}

// Builtins returns the triggered scripts shipped with yukora.
func Builtins() []schema.Script {
	return []schema.Script{
		{
			Name:  "forge",
			Title: "Forge recursive run",
			Entries: []schema.ScriptEntry{
				line("$ forge recursive run --seed etl_logic.zip", 0),
				line("[DETONATE] Propagating runtime from seed...", 600),
				line("[PRUNE] Task:Extract complete. Node shredded.", 800),
				line("[PRUNE] Task:Transform complete. Node shredded.", 800),
				line("[BASELINE] Verifying repo footprint: 0B Drift.", 700),
				line("// Implosion complete. System at Zero Baseline.", 600),
			},
		},
		{
			Name:  "nemo-sync",
			Title: "Nemo vault restore",
			Entries: []schema.ScriptEntry{
				line("> nemo sync --vault zero", 0),
				line(">> Verifying hardware-rooted identity...", 700),
				line(">> Identity: 0x7A4F... [MATCH]", 800),
				line(">> Restoring desktop state to 2026-02-11T14:30:00...", 900),
				line(">> SUCCESS: 100% RECOVERY COMPLETE.", 800),
			},
		},
		{
			Name:  "ethereal-infer",
			Title: "Local inference",
			Entries: []schema.ScriptEntry{
				line("$ nexus infer --model resnet50 --data ./images/", 0),
				line("[-] Loading resnet50 into the sovereign runtime...", 500),
				line("[-] Batch 1/3 classified.", 400),
				line("[-] Batch 2/3 classified.", 400),
				line("[-] Batch 3/3 classified.", 400),
				line("[SUCCESS] 128 images classified. 0 bytes left the device.", 500),
			},
		},
		{
			Name:  "ethereal-deploy",
			Title: "Ephemeral deployment",
			Entries: []schema.ScriptEntry{
				line("$ ethereal deploy --model resnet50", 0),
				line("[*] Packaging model artifact...", 500),
				line("[*] Provisioning ephemeral edge node...", 700),
				line("[+] Endpoint live: https://edge.local/resnet50", 600),
				line("[SUCCESS] Deployment complete. Node dissolves on idle.", 500),
			},
		},
		{
			Name:  "nexus-train",
			Title: "Federated training",
			Entries: []schema.ScriptEntry{
				line("$ nexus train --strategy federated --nodes 3", 0),
				line("[-] Handshaking with 3 federated nodes...", 600),
				line("[-] Epoch 1/2: loss 0.412", 700),
				line("[-] Epoch 2/2: loss 0.187", 700),
				line("[SUCCESS] Weights merged. Raw data never left its node.", 500),
			},
		},
		{
			Name:  "spectre-verify",
			Title: "SpectreID hardware check",
			Entries: []schema.ScriptEntry{
				line("$ spectre verify", 0),
				line("[-] Scanning local hardware layer...", 500),
				line("[-] Hardware Map Built: 7 Entropy Sources Captured.", 700),
				line("[!] Existing Identity Block Found: ~/.spectre/identity.json", 500),
				line("[SUCCESS] HARDWARE VERIFICATION PASSED.", 800),
				line("Access Granted to Yukora Suite.", 300),
			},
		},
		{
			Name:  "vault-lock",
			Title: "VaultZero lock and unlock",
			Entries: []schema.ScriptEntry{
				line("$ vaultzero lock ./schnitzelbank.db", 0),
				line("[1] Locking sensitive Schnitzelbank data...", 500),
				line("[SUCCESS] Data encrypted and locked in vault.enc", 700),
				line("[2] Attempting to unlock data using current machine identity...", 600),
				line("[SUCCESS] Hardware verified. Vault unlocked.", 800),
			},
		},
	}
}

// DefaultScriptName is the console acknowledgement for unmatched commands.
const DefaultScriptName schema.ScriptName = "ack"

// ConsoleRoute binds a matcher to a response script by name.
type ConsoleRoute struct {
	Name    string
	Matcher core.Matcher
	Script  schema.ScriptName
}

// ConsoleScripts returns the response scripts used by the interactive console.
// Responses carry no echo line; the console prepends the command itself.
func ConsoleScripts() []schema.Script {
	return []schema.Script{
		{
			Name:  "infer-response",
			Title: "Console: inference",
			Entries: []schema.ScriptEntry{
				line("[-] Resolving model from local registry...", 300),
				line("[-] Running inference on sovereign hardware...", 600),
				line("[SUCCESS] Inference complete. Results cached locally.", 500),
			},
		},
		{
			Name:  "deploy-response",
			Title: "Console: deployment",
			Entries: []schema.ScriptEntry{
				line("[*] Building ephemeral node image...", 400),
				line("[+] Node online. Health checks passing.", 700),
				line("[SUCCESS] Deployed. Teardown scheduled on idle.", 500),
			},
		},
		{
			Name:  "train-response",
			Title: "Console: training",
			Entries: []schema.ScriptEntry{
				line("[-] Sharding dataset across federated nodes...", 500),
				line("[-] Aggregating gradients...", 800),
				line("[SUCCESS] Training round complete.", 500),
			},
		},
		{
			Name:  "status",
			Title: "Console: status",
			Entries: []schema.ScriptEntry{
				line(">> Runtime: ONLINE", 200),
				line(">> Drift: 0B", 200),
				line(">> Identity: 0x7A4F... [MATCH]", 200),
			},
		},
		{
			Name:  "help",
			Title: "Console: help",
			Entries: []schema.ScriptEntry{
				line("// Try: infer, deploy, train, status", 100),
				line("// /play <script> runs a demo, /scripts lists them.", 100),
			},
		},
		{
			Name:  DefaultScriptName,
			Title: "Console: acknowledgement",
			Entries: []schema.ScriptEntry{
				line("[*] Command queued on the sovereign runtime.", 300),
				line("// No workflow matched. Type 'help' for options.", 300),
			},
		},
	}
}

// ConsoleRoutes returns the built-in console routes in priority order.
func ConsoleRoutes() []ConsoleRoute {
	return []ConsoleRoute{
		{Name: "help", Matcher: core.HasPrefix("help"), Script: "help"},
		{Name: "status", Matcher: core.HasPrefix("status"), Script: "status"},
		{Name: "infer", Matcher: core.Contains("infer"), Script: "infer-response"},
		{Name: "deploy", Matcher: core.Contains("deploy"), Script: "deploy-response"},
		{Name: "train", Matcher: core.Contains("train"), Script: "train-response"},
	}
}
