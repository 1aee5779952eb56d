package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE automations (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				data JSONB NOT NULL,
				total_executions BIGINT NOT NULL DEFAULT 0,
				successful_executions BIGINT NOT NULL DEFAULT 0,
				failed_executions BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_automations_organization ON automations(organization_id);
			CREATE INDEX idx_automations_active ON automations(organization_id, is_active);

			CREATE TABLE conversations (
				id VARCHAR(255) PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				is_paused BOOLEAN NOT NULL DEFAULT false,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_conversations_organization ON conversations(organization_id);
			CREATE INDEX idx_conversations_paused ON conversations(is_paused);

			CREATE TABLE messages (
				id UUID PRIMARY KEY,
				conversation_id VARCHAR(255) NOT NULL,
				organization_id VARCHAR(255) NOT NULL,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_messages_conversation ON messages(conversation_id, created_at);

			CREATE TABLE integrations (
				organization_id VARCHAR(255) PRIMARY KEY,
				messaging JSONB,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE execution_logs (
				id UUID PRIMARY KEY,
				automation_id UUID NOT NULL,
				organization_id VARCHAR(255) NOT NULL,
				data JSONB NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_logs_automation ON execution_logs(automation_id, started_at);
		`,
		2: `
			CREATE TABLE social_posts (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE NOT NULL,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_social_posts_due ON social_posts(status, scheduled_at);
			CREATE INDEX idx_social_posts_organization ON social_posts(organization_id);
		`,
	}
}
