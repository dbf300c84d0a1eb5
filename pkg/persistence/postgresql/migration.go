package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow documents: metadata columns plus the node/edge graph as JSONB
			CREATE TABLE workflows (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL CHECK (btrim(name) <> ''),
				description TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				owner_id VARCHAR(320) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_owner_id ON workflows(owner_id);
			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at DESC, id);
		`,
		2: `
			-- Lookups of workflows by the trigger event they listen on
			CREATE INDEX idx_workflows_nodes ON workflows USING GIN (nodes jsonb_path_ops);
		`,
	}
}
