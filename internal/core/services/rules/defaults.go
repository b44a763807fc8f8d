package rules

// defaultRules seed an empty store when no rule file is configured.
var defaultRules = []string{
	`alert file any any -> any any (msg:"Test Malware"; content:"*.virus"; sid:1001; rev:1;)`,
	`quarantine file any any -> any any (msg:"EICAR test file"; hash:"md5:44d88612fea8a8f36de82e1278abb02f"; sid:1002; rev:1;)`,
	`alert file any any -> any any (msg:"Executable disguised with double extension"; behavior:"double_extension"; sid:1003; rev:1;)`,
	`log file any any -> any any (msg:"PowerShell script written"; content:"*.ps1"; sid:1004; rev:1;)`,
	`alert file any any -> any any (msg:"Possible ransom note"; content:"*decrypt*instructions*"; sid:1005; rev:1;)`,
	`quarantine file any any -> any any (msg:"Known ransomware extension"; content:"*.locky"; sid:1006; rev:1;)`,
}

// DefaultRuleTexts returns a copy of the built-in rule set.
func DefaultRuleTexts() []string {
	out := make([]string, len(defaultRules))
	copy(out, defaultRules)
	return out
}
